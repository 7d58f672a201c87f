package logger

// LogStages defines standardized stage names for consistent logging
var LogStages = struct {
	// Request lifecycle
	RequestReceived  string
	RequestCompleted string
	RequestFailed    string
	TrackingSetup    string

	// Pipeline stages
	BodyParsed          string
	CredentialResolved  string
	CredentialValidated string
	Dispatched          string
	Translated          string
	Fallback            string

	// Upstream and actions
	UpstreamRequest  string
	UpstreamResponse string
	UpstreamError    string
	ActionExecution  string
	StreamRelay      string

	// System operations
	Initialization    string
	Configuration     string
	DatabaseOperation string
	HealthCheck       string
}{
	RequestReceived:  "RequestReceived",
	RequestCompleted: "RequestCompleted",
	RequestFailed:    "RequestFailed",
	TrackingSetup:    "TrackingSetup",

	BodyParsed:          "BodyParsed",
	CredentialResolved:  "CredentialResolved",
	CredentialValidated: "CredentialValidated",
	Dispatched:          "Dispatched",
	Translated:          "Translated",
	Fallback:            "Fallback",

	UpstreamRequest:  "UpstreamRequest",
	UpstreamResponse: "UpstreamResponse",
	UpstreamError:    "UpstreamError",
	ActionExecution:  "ActionExecution",
	StreamRelay:      "StreamRelay",

	Initialization:    "Initialization",
	Configuration:     "Configuration",
	DatabaseOperation: "DatabaseOperation",
	HealthCheck:       "HealthCheck",
}

// ComponentNames defines standardized component names
var ComponentNames = struct {
	App        string
	Middleware string
	Handler    string
	Pipeline   string
	Extractor  string
	Validator  string
	Dispatcher string
	Translator string
	Engine     string
	Research   string
	Cache      string
	Database   string
	Monitoring string
	Config     string
}{
	App:        "App",
	Middleware: "Middleware",
	Handler:    "Handler",
	Pipeline:   "RequestPipeline",
	Extractor:  "CredentialExtractor",
	Validator:  "CredentialValidator",
	Dispatcher: "UpstreamDispatcher",
	Translator: "ResponseTranslator",
	Engine:     "UpstreamEngine",
	Research:   "ResearchAction",
	Cache:      "Cache",
	Database:   "Database",
	Monitoring: "Monitoring",
	Config:     "Config",
}
