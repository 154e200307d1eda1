package messaging

// Subject names for the evidencias message bus.
// Pattern: {domain}.{event}
const (
	SubjectEvidenciasCreated       = "evidencias.created"        // New delivery record stored
	SubjectEvidenciasStatusUpdated = "evidencias.status_updated" // Lifecycle status changed

	// SubjectEvidenciasAll matches every evidencias lifecycle subject.
	SubjectEvidenciasAll = "evidencias.>"
)

// Header names attached to published messages.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderEventType = "X-Event-Type"
)
