package models

// AppModel holds local UI state only; conversation truth lives in the core.
type AppModel struct {
	Messages    []Message
	Input       string
	Status      string
	Loading     bool
	LoadingDots int
	Width       int
	Height      int

	AwaitingApproval bool
	PendingCode      string
	PendingLanguage  string

	AutoRun      bool
	AutomationOn bool
	VisionOn     bool
	HealthState  string
	ProviderName string

	SessionTokensIn  int
	SessionTokensOut int
}
