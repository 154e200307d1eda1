package parser

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.Fields
	}{
		{
			name: "full message",
			raw: "CLIENTE: Acme\nDESTINO: CDMX\nOC_PEDIDO: 4500123\nEQUIPO: Tracto 12\n" +
				"OPERADOR: Juan\nSTATUS: ENTREGADO\nHR ENTREGA: 14:00\nOBSERVACIONES: sin novedad",
			expected: models.Fields{
				Cliente:       strPtr("Acme"),
				Destino:       strPtr("CDMX"),
				OCPedido:      strPtr("4500123"),
				Equipo:        strPtr("Tracto 12"),
				Operador:      strPtr("Juan"),
				StatusEntrega: strPtr("ENTREGADO"),
				HrEntrega:     strPtr("14:00"),
				Observaciones: strPtr("sin novedad"),
			},
		},
		{
			name:     "empty message",
			raw:      "",
			expected: models.Fields{},
		},
		{
			name:     "no recognized labels",
			raw:      "hola\nbuen dia\nentregado sin problema",
			expected: models.Fields{},
		},
		{
			name: "unknown lines are skipped",
			raw:  "Buenas tardes\nCLIENTE: Acme\nFIRMA: Pedro\nDESTINO: Monterrey",
			expected: models.Fields{
				Cliente: strPtr("Acme"),
				Destino: strPtr("Monterrey"),
			},
		},
		{
			name: "surrounding whitespace and CRLF",
			raw:  "   CLIENTE:    Acme   \r\n\tDESTINO:CDMX\r\n",
			expected: models.Fields{
				Cliente: strPtr("Acme"),
				Destino: strPtr("CDMX"),
			},
		},
		{
			name: "label must start the line",
			raw:  "nota CLIENTE: Acme\nDESTINO: CDMX",
			expected: models.Fields{
				Destino: strPtr("CDMX"),
			},
		},
		{
			name: "label is case sensitive",
			raw:  "cliente: Acme\nStatus: ENTREGADO",
			expected: models.Fields{},
		},
		{
			name: "value keeps later label text",
			raw:  "OBSERVACIONES: revisar CLIENTE: y DESTINO:",
			expected: models.Fields{
				Observaciones: strPtr("revisar CLIENTE: y DESTINO:"),
			},
		},
		{
			name: "empty value is present",
			raw:  "OC_PEDIDO:\nEQUIPO:   ",
			expected: models.Fields{
				OCPedido: strPtr(""),
				Equipo:   strPtr(""),
			},
		},
		{
			name: "header is stripped",
			raw:  "[12:35 p.m., 9/11/2025] Transportes Vepo: CLIENTE: Acme\nSTATUS: ENTREGADO",
			expected: models.Fields{
				Cliente:       strPtr("Acme"),
				StatusEntrega: strPtr("ENTREGADO"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.raw))
		})
	}
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	raw := "STATUS: RECOLECTADO\nCLIENTE: Acme\nSTATUS: ENTREGADO"

	fields := Parse(raw)

	require.NotNil(t, fields.StatusEntrega)
	assert.Equal(t, "ENTREGADO", *fields.StatusEntrega)
	require.NotNil(t, fields.Cliente)
	assert.Equal(t, "Acme", *fields.Cliente)
}

func TestStripHeader(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "no header",
			text:     "CLIENTE: Acme",
			expected: "CLIENTE: Acme",
		},
		{
			name:     "whatsapp export header",
			text:     "[12:35 p.m., 9/11/2025] Transportes Vepo: CLIENTE: Acme",
			expected: "CLIENTE: Acme",
		},
		{
			name:     "header without space before sender",
			text:     "[x]Sender: CLIENTE: Acme",
			expected: "CLIENTE: Acme",
		},
		{
			name:     "only the leading header is removed",
			text:     "[1] A: CLIENTE: Acme\n[2] B: DESTINO: CDMX",
			expected: "CLIENTE: Acme\n[2] B: DESTINO: CDMX",
		},
		{
			name:     "bracket later in text is untouched",
			text:     "CLIENTE: Acme\n[2] B: DESTINO: CDMX",
			expected: "CLIENTE: Acme\n[2] B: DESTINO: CDMX",
		},
		{
			name:     "bracket without sender colon",
			text:     "[nota] sin dos puntos",
			expected: "[nota] sin dos puntos",
		},
		{
			name:     "tag on its own line is not a header",
			text:     "[URGENTE]\nCLIENTE: Acme",
			expected: "[URGENTE]\nCLIENTE: Acme",
		},
		{
			name:     "header stops at end of line",
			text:     "[9/11/2025] Vepo:\nCLIENTE: Acme",
			expected: "\nCLIENTE: Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHeader(tt.text))
		})
	}
}

func TestParse_HeaderStrippingIsNonDestructive(t *testing.T) {
	body := "CLIENTE: Acme\nDESTINO: CDMX\nOPERADOR: Juan\nSTATUS: ENTREGADO\nHR ENTREGA: 14:00"

	headers := []string{
		"[any]Sender: ",
		"[12:35 p.m., 9/11/2025] Transportes Vepo: ",
		"[9/11/2025 08:00] +52 55 1234 5678:\n",
	}

	for _, h := range headers {
		assert.Equal(t, Parse(body), Parse(h+body), "header %q", h)
	}
}

func TestParse_LeadingTagLineKeepsFields(t *testing.T) {
	fields := Parse("[URGENTE]\nCLIENTE: Acme\nSTATUS: ENTREGADO")

	require.NotNil(t, fields.Cliente)
	assert.Equal(t, "Acme", *fields.Cliente)
	require.NotNil(t, fields.StatusEntrega)
	assert.Equal(t, "ENTREGADO", *fields.StatusEntrega)
}

func TestParse_RenderRoundTrip(t *testing.T) {
	faker := gofakeit.New(20251109)

	value := func() *string {
		if faker.Bool() {
			return nil
		}
		return strPtr(faker.Company())
	}

	for i := 0; i < 200; i++ {
		fields := models.Fields{
			Cliente:       value(),
			Destino:       value(),
			OCPedido:      value(),
			Equipo:        value(),
			Operador:      value(),
			StatusEntrega: value(),
			HrEntrega:     value(),
			Observaciones: value(),
		}

		rendered := Render(fields)
		assert.Equal(t, fields, Parse(rendered), "rendered message:\n%s", rendered)
	}
}

func TestRender(t *testing.T) {
	fields := models.Fields{
		Observaciones: strPtr("ok"),
		Cliente:       strPtr("Acme"),
		HrEntrega:     strPtr("14:00"),
	}

	assert.Equal(t, "CLIENTE: Acme\nHR ENTREGA: 14:00\nOBSERVACIONES: ok", Render(fields))
	assert.Empty(t, Render(models.Fields{}))
}

func TestLabels(t *testing.T) {
	got := Labels()
	assert.Equal(t, []string{
		"CLIENTE:", "DESTINO:", "OC_PEDIDO:", "EQUIPO:",
		"OPERADOR:", "STATUS:", "HR ENTREGA:", "OBSERVACIONES:",
	}, got)

	got[0] = "changed"
	assert.True(t, strings.HasPrefix(Labels()[0], "CLIENTE"))
}
