// Package parser extracts delivery fields from the free-text messages drivers
// send through the messaging webhook.
//
// Messages look like
//
//	[12:35 p.m., 9/11/2025] Transportes Vepo: CLIENTE: Acme
//	DESTINO: CDMX
//	OPERADOR: Juan
//	STATUS: ENTREGADO
//
// The bracketed header is optional. Unknown lines are ignored.
package parser

import (
	"regexp"
	"strings"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// Field labels in match order.
const (
	LabelCliente       = "CLIENTE:"
	LabelDestino       = "DESTINO:"
	LabelOCPedido      = "OC_PEDIDO:"
	LabelEquipo        = "EQUIPO:"
	LabelOperador      = "OPERADOR:"
	LabelStatus        = "STATUS:"
	LabelHrEntrega     = "HR ENTREGA:"
	LabelObservaciones = "OBSERVACIONES:"
)

// headerPattern matches a forwarded-chat prefix such as
// "[12:35 p.m., 9/11/2025] Transportes Vepo: ". Anchored to the start of the
// text and confined to its first line.
var headerPattern = regexp.MustCompile(`^\[[^\]\n]+\][ \t]*[^:\n]+:[ \t]*`)

type label struct {
	text string
	slot func(*models.Fields) **string
}

var labels = []label{
	{LabelCliente, func(f *models.Fields) **string { return &f.Cliente }},
	{LabelDestino, func(f *models.Fields) **string { return &f.Destino }},
	{LabelOCPedido, func(f *models.Fields) **string { return &f.OCPedido }},
	{LabelEquipo, func(f *models.Fields) **string { return &f.Equipo }},
	{LabelOperador, func(f *models.Fields) **string { return &f.Operador }},
	{LabelStatus, func(f *models.Fields) **string { return &f.StatusEntrega }},
	{LabelHrEntrega, func(f *models.Fields) **string { return &f.HrEntrega }},
	{LabelObservaciones, func(f *models.Fields) **string { return &f.Observaciones }},
}

// Labels returns the recognized labels in match order.
func Labels() []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.text
	}
	return out
}

// StripHeader removes a single leading "[...] Sender: " prefix if present.
func StripHeader(text string) string {
	loc := headerPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[loc[1]:]
}

// Parse extracts the recognized fields from raw. It never fails: lines that
// match no label are skipped and labels that never appear stay nil. When a
// label repeats, the last line wins.
func Parse(raw string) models.Fields {
	var fields models.Fields

	for _, line := range strings.Split(StripHeader(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, l := range labels {
			if !strings.HasPrefix(line, l.text) {
				continue
			}
			value := strings.TrimSpace(line[len(l.text):])
			*l.slot(&fields) = &value
			break
		}
	}

	return fields
}

// Render writes fields back as "LABEL value" lines in label order, skipping
// absent fields. Parse(Render(f)) yields f for values without surrounding
// whitespace or newlines.
func Render(fields models.Fields) string {
	var b strings.Builder
	for _, l := range labels {
		v := *l.slot(&fields)
		if v == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
		b.WriteByte(' ')
		b.WriteString(*v)
	}
	return b.String()
}
