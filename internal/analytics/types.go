package analytics

import "encoding/json"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// TradeResult is a trade in the shape of the live dashboard and /analyze responses.
type TradeResult struct {
	TradeNum       int      `json:"trade_num"`
	Ticker         string   `json:"ticker"`
	PurchaseDate   string   `json:"fecha_compra"`
	PurchasePrice  float64  `json:"precio_compra"`
	TargetPrice    float64  `json:"precio_target"`
	SaleDate       *string  `json:"fecha_venta,omitempty"`
	SalePrice      *float64 `json:"precio_venta,omitempty"`
	Days           int      `json:"dias_trade"`
	ProfitPct      float64  `json:"profit_pct"`
	ProfitAbsolute float64  `json:"profit_absoluto"`
	Status         string   `json:"estado"`
	CurrentPrice   *float64 `json:"precio_actual,omitempty"`
}

// DashboardResponse is returned by GET /dashboard.
type DashboardResponse struct {
	AnalysisDate     string        `json:"fecha_analisis"`
	OpenTrades       []TradeResult `json:"trades_abiertos"`
	TotalTrades      int           `json:"total_trades"`
	SuccessfulTrades int           `json:"trades_exitosos"`
	TotalProfit      float64       `json:"profit_total"`
	AverageDays      float64       `json:"dias_promedio"`
}

// Period is a date range echoed back by the analysis endpoints.
type Period struct {
	Start string `json:"inicio"`
	End   string `json:"fin"`
}

// HistoricalQuery parameterizes GET /historical-analysis. Zero ProfitTarget and
// MaxDays are left out of the query.
type HistoricalQuery struct {
	StartDate    string
	EndDate      string
	ProfitTarget float64
	MaxDays      int
}

// TickerPerformance is one entry of the best/worst ticker rankings.
type TickerPerformance struct {
	Ticker  string  `json:"ticker"`
	Profit  float64 `json:"profit"`
	WinRate float64 `json:"win_rate"`
}

// HistoricalSummary is the "resumen" block of a historical analysis.
type HistoricalSummary struct {
	Period              Period              `json:"periodo"`
	TotalTrades         int                 `json:"total_trades"`
	SuccessfulTrades    int                 `json:"trades_exitosos"`
	LosingTrades        int                 `json:"trades_perdida"`
	TimeoutTrades       int                 `json:"trades_timeout"`
	TotalProfit         float64             `json:"profit_total"`
	WinRate             float64             `json:"win_rate"`
	AvgWinnerProfit     float64             `json:"avg_profit_ganadores"`
	AvgLoserLoss        float64             `json:"avg_perdida_perdedores"`
	AverageDurationDays float64             `json:"avg_dias_duracion"`
	BestTickers         []TickerPerformance `json:"mejores_tickers"`
	WorstTickers        []TickerPerformance `json:"peores_tickers"`
}

// HistoricalTrade is a trade in the shape of the historical-analysis response.
type HistoricalTrade struct {
	TradeNum       int      `json:"trade_num"`
	Ticker         string   `json:"ticker"`
	PurchaseDate   string   `json:"fecha_compra"`
	PurchasePrice  float64  `json:"precio_compra"`
	TargetPrice    float64  `json:"precio_target"`
	SaleDate       *string  `json:"fecha_venta,omitempty"`
	SalePrice      *float64 `json:"precio_venta,omitempty"`
	DurationDays   int      `json:"dias_duracion"`
	ProfitPct      float64  `json:"profit_pct"`
	ProfitAbsolute float64  `json:"profit_absoluto"`
	FinalStatus    string   `json:"estado_final"`
	ResultDetail   string   `json:"resultado_detalle"`
}

// HistoricalResponse is returned by GET /historical-analysis.
type HistoricalResponse struct {
	Summary             HistoricalSummary          `json:"resumen"`
	Trades              []HistoricalTrade          `json:"trades_historicos"`
	PerformanceByTicker map[string]json.RawMessage `json:"performance_por_ticker"`
}

// TickerCategories groups the tracked tickers.
type TickerCategories struct {
	Argentine []string `json:"argentinas"`
	ETFs      []string `json:"etfs"`
	Crypto    []string `json:"crypto"`
}

// TickersResponse is returned by GET /tickers.
type TickersResponse struct {
	Tickers    []string         `json:"tickers"`
	Count      int              `json:"count"`
	Categories TickerCategories `json:"categories"`
}

// TickerPrice is returned by GET /price/{ticker}.
type TickerPrice struct {
	Ticker        string  `json:"ticker"`
	CurrentPrice  float64 `json:"precio_actual"`
	PreviousPrice float64 `json:"precio_anterior"`
	ChangePct     float64 `json:"cambio_pct"`
	Timestamp     string  `json:"timestamp"`
	Source        string  `json:"source,omitempty"`
}

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	Ticker       string   `json:"ticker"`
	StartDate    string   `json:"fecha_inicio"`
	EndDate      string   `json:"fecha_fin"`
	ProfitTarget *float64 `json:"profit_target,omitempty"`
	MaxDays      *int     `json:"max_days,omitempty"`
}

// AnalysisSettings echoes the parameters an analysis ran with.
type AnalysisSettings struct {
	ProfitTarget float64 `json:"profit_target"`
	MaxDays      int     `json:"max_days"`
}

// AnalysisSummary is the "resumen" block of a single-ticker analysis.
type AnalysisSummary struct {
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"trades_exitosos"`
	SuccessRate      float64 `json:"tasa_exito"`
	AverageProfit    float64 `json:"profit_promedio"`
	AverageDays      float64 `json:"dias_promedio"`
}

// AnalysisResponse is returned by POST /analyze.
type AnalysisResponse struct {
	Ticker   string           `json:"ticker"`
	Period   Period           `json:"periodo"`
	Settings AnalysisSettings `json:"configuracion"`
	Summary  AnalysisSummary  `json:"resumen"`
	Trades   []TradeResult    `json:"trades"`
	Message  string           `json:"message,omitempty"`
}

// AnalyzeAllResponse is returned by GET /analyze-all. Each result is either an
// AnalysisResponse or an {"error": ...} object, so they are kept raw.
type AnalyzeAllResponse struct {
	Period          Period                     `json:"periodo"`
	TickersAnalyzed int                        `json:"tickers_analizados"`
	Results         map[string]json.RawMessage `json:"resultados"`
}
