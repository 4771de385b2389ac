package config

import "time"

const (
	// Chat widget
	DeliveryDelay  = 600 * time.Millisecond
	TooltipDelay   = 10 * time.Second
	TooltipVisible = 5 * time.Second
	MaxInputRunes  = 500

	// Session storage namespace
	StorageKey = "timetravel-chat-history"

	// Gateway call from the client side
	GatewayTimeout = 60 * time.Second

	// Upstream completion call from the proxy
	RequestTimeout = 45 * time.Second
	Temperature    = 0.75
	MaxTokens      = 600

	// Booking webhook
	WebhookTimeout = 15 * time.Second

	// HTTP server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
	MaxRequestBody    = 1 << 20

	// Telegram limits
	MaxTelegramMessageLen = 4096
)

// Fallback error texts surfaced to the user.
const (
	FallbackChatError   = "Une perturbation temporelle affecte nos systèmes."
	ProxyNoKeyError     = "Une micro-perturbation temporelle affecte nos systemes. Nos ingenieurs du Continuum travaillent a la resolution."
	ProxyUpstreamError  = "Une perturbation temporelle mineure empeche la communication. Veuillez reessayer dans un instant."
	ProxyEmptyError     = "Le signal chrono-spatial est momentanement brouille. Reformulez votre question."
	ProxyInternalError  = "Une perturbation temporelle affecte nos systemes. Nos ingenieurs du Continuum sont sur le coup."
	SubmissionErrorText = "A temporal disturbance prevented transmission. Please try again."
)

// WelcomeText opens every fresh conversation.
const WelcomeText = "Bienvenue, cher chrononaute. Je suis Chronos, votre concierge temporel d’exception. Trois destinations extraordinaires vous attendent : le Paris scintillant de 1889, les terres primordiales du Crétacé, ou la Florence des génies de 1504. Quelle époque fait battre votre cœur ?"

// WelcomeSuggestions are attached to the welcome message.
var WelcomeSuggestions = []string{
	"Parlez-moi de Paris 1889",
	"Le Crétacé, c’est sûr ?",
	"Florence et ses artistes",
}

// StarterReplies are offered until the first message is sent.
var StarterReplies = []string{
	"Découvrir Paris 1889",
	"L’aventure Crétacé",
	"Florence Renaissance",
	"Quelle destination pour moi ?",
}

// Proxy request validation and throttling.
const (
	MessagesRequiredError = "Messages array is required"
	InvalidRoleError      = "Message roles must be user or assistant"
	RateLimitedError      = "Trop de requetes temporelles. Patientez un instant avant de reessayer."
)
