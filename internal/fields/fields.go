// Package fields нормализует и проверяет текстовые поля карточек инвентаря.
package fields

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

type FieldDef struct {
	Key      string
	Example  string
	Validate func(string) (string, error)
	Required bool
}

var (
	reHostname = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))*$`)
	reSerial   = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-_./]{0,119}$`)
)

// Upper: то же, что text-transform: uppercase в формах, но на сервере.
func Upper(v string) (string, error) {
	return strings.ToUpper(strings.Join(strings.Fields(v), " ")), nil
}

func normSerial(v string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if !reSerial.MatchString(s) {
		return "", errors.New("invalid serial")
	}
	return s, nil
}

func normHostname(v string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return "", nil
	}
	if len(s) > 253 || !reHostname.MatchString(s) {
		return "", errors.New("invalid hostname")
	}
	return s, nil
}

func normMAC(v string) (string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return "", nil
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return "", errors.New("invalid mac")
	}
	return strings.ToUpper(hw.String()), nil
}

// NormIPv4 приводит адрес к каноничной dotted-quad форме.
func NormIPv4(v string) (string, error) {
	ip := net.ParseIP(strings.TrimSpace(v))
	if ip == nil || ip.To4() == nil {
		return "", errors.New("invalid ipv4")
	}
	return ip.To4().String(), nil
}

func normKind(v string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	switch s {
	case "":
		return "", errors.New("empty kind")
	case "CPU", "LAPTOP", "MONITOR", "IMPRESORA", "TELEFONO", "SWITCH", "ROUTER", "UPS", "PERIFERICO", "OTRO":
		return s, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

func pass(v string) (string, error) { return strings.TrimSpace(v), nil }

var Catalog = []FieldDef{
	{Key: "serial", Example: "5CG1234XYZ", Validate: normSerial, Required: true},
	{Key: "name", Example: "PC RECEPCION", Validate: Upper},
	{Key: "kind", Example: "CPU|LAPTOP|MONITOR|...", Validate: normKind, Required: true},
	{Key: "brand", Example: "HP", Validate: Upper},
	{Key: "model", Example: "ProDesk 400 G7", Validate: Upper},
	{Key: "hostname", Example: "recepcion-01", Validate: normHostname},
	{Key: "mac", Example: "00:1A:2B:3C:4D:5E", Validate: normMAC},
	{Key: "address", Example: "10.0.0.15", Validate: NormIPv4, Required: true},
	{Key: "note", Example: "impresora piso 2", Validate: pass},
}

var byKey map[string]FieldDef

func init() {
	byKey = make(map[string]FieldDef, len(Catalog))
	for _, d := range Catalog {
		byKey[d.Key] = d
	}
}

func Def(key string) (FieldDef, bool) { d, ok := byKey[key]; return d, ok }

// ValidateOne validates and normalizes a single field by key.
func ValidateOne(key, value string) (string, error) {
	if def, ok := Def(key); ok {
		return def.Validate(value)
	}
	return "", fmt.Errorf("unknown field: %s", key)
}

// Normalize применяет ValidateOne к набору полей; required-поля обязаны быть непустыми.
// Возвращает первую ошибку вместе с ключом поля.
func Normalize(in map[string]string, keys ...string) (map[string]string, string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		def, ok := Def(k)
		if !ok {
			return nil, k, fmt.Errorf("unknown field: %s", k)
		}
		v := in[k]
		if def.Required && strings.TrimSpace(v) == "" {
			return nil, k, errors.New("required")
		}
		n, err := def.Validate(v)
		if err != nil {
			return nil, k, err
		}
		out[k] = n
	}
	return out, "", nil
}
