package logging

import "log/slog"

// Field names shared by the evidencias services and CLI.
const (
	FieldService     = "service"
	FieldRequestID   = "request_id"
	FieldIP          = "ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatus      = "status"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldEvidenciaID = "evidencia_id"
	FieldEvidencia   = "evidencia_status"
	FieldOperador    = "operador"
	FieldCarrier     = "permisionario"
	FieldOutcome     = "outcome"
	FieldSubject     = "subject"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error. A nil error logs as "<nil>".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "<nil>")
	}
	return slog.String(FieldError, err.Error())
}

// EvidenciaID returns a slog attribute for a delivery record ID.
func EvidenciaID(id int64) slog.Attr {
	return slog.Int64(FieldEvidenciaID, id)
}

// EvidenciaStatus returns a slog attribute for a lifecycle status label.
func EvidenciaStatus(status string) slog.Attr {
	return slog.String(FieldEvidencia, status)
}

// Operador returns a slog attribute for the driver name in a message.
func Operador(name string) slog.Attr {
	return slog.String(FieldOperador, name)
}

// Carrier returns a slog attribute for the resolved carrier.
func Carrier(name string) slog.Attr {
	return slog.String(FieldCarrier, name)
}

// Outcome returns a slog attribute for an ingestion outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(FieldOutcome, outcome)
}

// Subject returns a slog attribute for a message bus subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}
