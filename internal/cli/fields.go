package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

// fieldFlags collects free-form request fields from --json and --field
type fieldFlags struct {
	pairs    []string
	jsonBody string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.pairs, "field", "f", nil,
		"request field as key=value; repeat a key or use key[]=value for lists")
	cmd.Flags().StringVar(&f.jsonBody, "json", "", "request fields as a JSON object")
}

// fields merges --json with --field pairs. Pairs win over JSON keys.
func (f *fieldFlags) fields() (wayforpay.Fields, error) {
	fields := wayforpay.Fields{}

	if f.jsonBody != "" {
		dec := json.NewDecoder(strings.NewReader(f.jsonBody))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
		for k, v := range raw {
			fields[k] = v
		}
	}

	lists := map[string][]string{}
	var order []string
	for _, pair := range f.pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q, expected key=value", pair)
		}
		key = strings.TrimSuffix(key, "[]")
		if _, seen := lists[key]; !seen {
			order = append(order, key)
		}
		lists[key] = append(lists[key], value)
	}

	for _, key := range order {
		values := lists[key]
		if len(values) == 1 && !isListPair(f.pairs, key) {
			fields[key] = values[0]
			continue
		}
		fields[key] = values
	}
	return fields, nil
}

func isListPair(pairs []string, key string) bool {
	for _, pair := range pairs {
		if strings.HasPrefix(pair, key+"[]=") {
			return true
		}
	}
	return false
}

func parseTransactionType(value string) (wayforpay.TransactionType, error) {
	t := wayforpay.TransactionType(strings.ToUpper(value))
	if _, err := wayforpay.Rules(t); err != nil {
		return "", err
	}
	return t, nil
}
