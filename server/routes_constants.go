package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"

	// Front-end pages the callback redirects to
	RouteAuthSuccess = "/auth/success"
	RouteAuthError   = "/auth/error"

	// Mail API Routes
	RouteEmails                 = "/api/emails"
	RouteEmail                  = "/api/emails/{id}"
	RouteEmailSend              = "/api/emails/send"
	RouteEmailSendAttachments   = "/api/emails/send-with-attachments"
	RouteEmailAttachments       = "/api/emails/{emailId}/attachments"
	RouteEmailAttachment        = "/api/emails/{emailId}/attachments/{attachmentId}"
	RouteEmailAttachmentContent = "/api/emails/{emailId}/attachments/{attachmentId}/content"
	RouteEmailAttachmentsAll    = "/api/emails/{emailId}/attachments/download-all"
	RouteAPIPreflight           = "/api/"

	// Diagnostics
	RouteHealth             = "/health"
	RouteMetrics            = "/metrics"
	RouteDebugCheck         = "/debug/check"
	RouteDebugTestMicrosoft = "/debug/test-microsoft"
	RouteDebugTestGraph     = "/debug/test-graph"

	// Single page app routes, all served index.html
	RouteAppIndex     = "/{$}"
	RouteAppLogin     = "/login"
	RouteAppDashboard = "/dashboard"
	RouteAppInbox     = "/inbox"
	RouteAppEmail     = "/emails/{path...}"
	RouteAppCompose   = "/compose"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
	RouteFavicon   = "/favicon.svg"
)
