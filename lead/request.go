package lead

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultNumber is the sales contact in international format without "+".
const DefaultNumber = "5592992593777"

const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
	FieldPlan  = "plan"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Request is a submitted signup form.
type Request struct {
	Name     string
	Email    string
	Phone    string
	PlanName string
}

// ValidationErrors maps a field to the message shown next to it.
type ValidationErrors map[string]string

// Error lists the failing fields in sorted order.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "lead: " + strings.Join(parts, "; ")
}

// Validate returns nil or a ValidationErrors with one entry per bad field.
func (r Request) Validate() error {
	errs := ValidationErrors{}

	if strings.TrimSpace(r.Name) == "" {
		errs[FieldName] = "Nome é obrigatório"
	}
	switch {
	case strings.TrimSpace(r.Email) == "":
		errs[FieldEmail] = "Email é obrigatório"
	case !emailPattern.MatchString(r.Email):
		errs[FieldEmail] = "Email inválido"
	}
	if strings.TrimSpace(r.Phone) == "" {
		errs[FieldPhone] = "Telefone é obrigatório"
	}
	if _, ok := LookupPlan(r.PlanName); !ok {
		errs[FieldPlan] = "Plano inválido"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Message is the text sent to sales.
func (r Request) Message() string {
	return fmt.Sprintf("Quero aderir ao plano %s, meus dados são: %s, %s, %s", r.PlanName, r.Name, r.Email, r.Phone)
}

// DeepLink validates r and returns a wa.me link that opens a chat with
// number prefilled with Message. An empty number uses DefaultNumber.
func (r Request) DeepLink(number string) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if number == "" {
		number = DefaultNumber
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("lead: number must contain digits only, got %q", number)
		}
	}
	return "https://wa.me/" + number + "?text=" + escapeComponent(r.Message()), nil
}

// escapeComponent percent-encodes every byte outside
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), the set browsers leave intact in a URI
// component. net/url has no encoder for exactly that set.
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
