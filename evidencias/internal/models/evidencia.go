package models

import "time"

// Status is the lifecycle label of an evidencia.
type Status string

const (
	StatusPendiente   Status = "PENDIENTE"
	StatusRecolectado Status = "RECOLECTADO"
	StatusEntregado   Status = "ENTREGADO"
)

// Statuses returns the accepted lifecycle labels in dashboard order.
func Statuses() []Status {
	return []Status{StatusPendiente, StatusRecolectado, StatusEntregado}
}

// Valid reports whether s is one of the three lifecycle labels.
func (s Status) Valid() bool {
	switch s {
	case StatusPendiente, StatusRecolectado, StatusEntregado:
		return true
	}
	return false
}

// ParseStatus validates a raw status string. Matching is exact.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.Valid()
}

// Fields holds the values extracted from a delivery message.
// A nil pointer means the message did not carry that line.
type Fields struct {
	Cliente       *string `json:"cliente"`
	Destino       *string `json:"destino"`
	OCPedido      *string `json:"oc_pedido"`
	Equipo        *string `json:"equipo"`
	Operador      *string `json:"operador"`
	StatusEntrega *string `json:"status_entrega"`
	HrEntrega     *string `json:"hr_entrega"`
	Observaciones *string `json:"observaciones"`
}

// Evidencia is one persisted delivery confirmation.
type Evidencia struct {
	ID int64 `json:"id"`
	Fields
	Permisionario   string    `json:"permisionario"`
	EvidenciaStatus Status    `json:"evidencia_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Orden is an evidencia enriched with the alert fields computed at read time.
type Orden struct {
	Evidencia
	DiasDesdeCreacion int  `json:"dias_desde_creacion"`
	RequiereAlerta    bool `json:"requiere_alerta"`
}

// UpdateStatusRequest is the body of PATCH /api/ordenes/{id}
type UpdateStatusRequest struct {
	EvidenciaStatus string `json:"evidencia_status"`
}

// ListOrdersRequest represents query parameters for listing orders
type ListOrdersRequest struct {
	Status string
}

// WebhookMessage is the JSON form of an inbound messaging webhook.
// Form-encoded deliveries carry the same field name.
type WebhookMessage struct {
	Body string `json:"Body"`
	From string `json:"From,omitempty"`
}
