package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

func (a *app) signCommand() *cobra.Command {
	var (
		ff      fieldFlags
		txType  string
		prepare bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the merchantSignature of a field set",
		Example: `  wayforpay sign --type CHECK_STATUS -f merchantAccount=test_merch_n1 -f orderReference=DH783023
  wayforpay sign --type REFUND --prepare --json '{"orderReference":"DH783023","amount":1,"currency":"UAH","comment":"return"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTransactionType(txType)
			if err != nil {
				return err
			}
			fields, err := ff.fields()
			if err != nil {
				return err
			}

			if !prepare {
				signature, err := a.client.CreateSignature(t, fields)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), signature)
				return err
			}

			prepared, err := a.client.Prepare(t, fields)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prepared)
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&txType, "type", "t", "", "transaction type, e.g. PURCHASE or REFUND")
	cmd.Flags().BoolVar(&prepare, "prepare", false, "print the complete signed request instead of the signature")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// purchaseFlags builds a PURCHASE field set from convenience flags layered
// over --json and --field input
type purchaseFlags struct {
	fieldFlags
	orderReference string
	amount         string
	currency       string
	domain         string
	productNames   []string
	productCounts  []int
	productPrices  []string
}

func (p *purchaseFlags) register(cmd *cobra.Command) {
	p.fieldFlags.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&p.orderReference, "order-reference", "", "order reference, a random UUID when omitted")
	flags.StringVar(&p.amount, "amount", "", "order amount, the product total when omitted")
	flags.StringVar(&p.currency, "currency", "UAH", "ISO 4217 currency code")
	flags.StringVar(&p.domain, "domain", "", "merchantDomainName, defaults to the configured domain")
	flags.StringArrayVar(&p.productNames, "product-name", nil, "product name, repeat per line")
	flags.IntSliceVar(&p.productCounts, "product-count", nil, "product quantity, repeat per line")
	flags.StringArrayVar(&p.productPrices, "product-price", nil, "product unit price, repeat per line")
}

func (p *purchaseFlags) build(defaultDomain string, now time.Time) (wayforpay.Fields, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}

	setDefault := func(key string, value any) {
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
	}

	if p.orderReference != "" {
		fields[wayforpay.FieldOrderReference] = p.orderReference
	}
	setDefault(wayforpay.FieldOrderReference, uuid.NewString())
	setDefault(wayforpay.FieldOrderDate, now.Unix())

	domain := p.domain
	if domain == "" {
		domain = defaultDomain
	}
	if domain != "" {
		setDefault(wayforpay.FieldMerchantDomainName, domain)
	}

	if len(p.productNames) > 0 {
		fields[wayforpay.FieldProductName] = p.productNames
	}
	if len(p.productCounts) > 0 {
		fields[wayforpay.FieldProductCount] = p.productCounts
	}

	var prices []decimal.Decimal
	for _, raw := range p.productPrices {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --product-price %q: %w", raw, err)
		}
		prices = append(prices, price)
	}
	if len(prices) > 0 {
		fields[wayforpay.FieldProductPrice] = prices
	}

	switch {
	case p.amount != "":
		amount, err := decimal.NewFromString(p.amount)
		if err != nil {
			return nil, fmt.Errorf("invalid --amount %q: %w", p.amount, err)
		}
		fields[wayforpay.FieldAmount] = amount
	case len(prices) > 0:
		setDefault(wayforpay.FieldAmount, productTotal(prices, p.productCounts))
	}

	if p.currency != "" {
		setDefault(wayforpay.FieldCurrency, p.currency)
	}
	return fields, nil
}

// productTotal sums price*count per line. A missing count means one unit.
func productTotal(prices []decimal.Decimal, counts []int) decimal.Decimal {
	total := decimal.Zero
	for i, price := range prices {
		count := int64(1)
		if i < len(counts) {
			count = int64(counts[i])
		}
		total = total.Add(price.Mul(decimal.NewFromInt(count)))
	}
	return total
}

func (a *app) purchaseURLCommand() *cobra.Command {
	var p purchaseFlags
	cmd := &cobra.Command{
		Use:   "purchase-url",
		Short: "Print a signed hosted checkout link",
		Example: `  wayforpay purchase-url --amount 1547.36 --product-name "Samsung WB1100F" --product-count 1 --product-price 1547.36`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := p.build(a.cfg.Merchant.DomainName, time.Now())
			if err != nil {
				return err
			}
			link, err := a.client.GeneratePurchaseURL(fields)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
			return err
		},
	}
	p.register(cmd)
	return cmd
}

func (a *app) formCommand() *cobra.Command {
	var p purchaseFlags
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Print a self-submitting HTML checkout form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := p.build(a.cfg.Merchant.DomainName, time.Now())
			if err != nil {
				return err
			}
			form, err := a.client.BuildForm(fields)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), form)
			return err
		},
	}
	p.register(cmd)
	return cmd
}

func (a *app) widgetCommand() *cobra.Command {
	var (
		p       purchaseFlags
		handler string
	)
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Print the payment widget script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := p.build(a.cfg.Merchant.DomainName, time.Now())
			if err != nil {
				return err
			}
			script, err := a.client.BuildWidgetButton(fields, handler)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), script)
			return err
		},
	}
	p.register(cmd)
	cmd.Flags().StringVar(&handler, "handler", "", "name of the window message listener for widget events, receiveMessage when omitted")
	return cmd
}

func (a *app) checkStatusCommand() *cobra.Command {
	var (
		ff             fieldFlags
		orderReference string
	)
	cmd := &cobra.Command{
		Use:   "check-status",
		Short: "Query the gateway for the status of an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := ff.fields()
			if err != nil {
				return err
			}
			fields[wayforpay.FieldOrderReference] = orderReference

			resp, err := a.client.CheckStatus(cmd.Context(), fields)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&orderReference, "order-reference", "", "order reference")
	_ = cmd.MarkFlagRequired("order-reference")
	return cmd
}

func (a *app) refundCommand() *cobra.Command {
	var (
		ff             fieldFlags
		orderReference string
		amount         string
		currency       string
		comment        string
	)
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Refund or void an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			fields, err := ff.fields()
			if err != nil {
				return err
			}
			fields[wayforpay.FieldOrderReference] = orderReference
			fields[wayforpay.FieldAmount] = value
			fields[wayforpay.FieldCurrency] = currency
			fields[wayforpay.FieldComment] = comment

			resp, err := a.client.Refund(cmd.Context(), fields)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&orderReference, "order-reference", "", "order reference")
	cmd.Flags().StringVar(&amount, "amount", "", "refund amount")
	cmd.Flags().StringVar(&currency, "currency", "UAH", "ISO 4217 currency code")
	cmd.Flags().StringVar(&comment, "comment", "", "refund reason")
	_ = cmd.MarkFlagRequired("order-reference")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

// printResponse writes the raw gateway body. A gateway error still prints the
// body before returning the error.
func printResponse(w io.Writer, resp *wayforpay.RawResponse, err error) error {
	if resp != nil {
		if reason, ok := resp.Reason(); ok {
			if _, werr := fmt.Fprintf(w, "reasonCode %d: %s\n", reason.Code, reason.Text); werr != nil {
				return werr
			}
		}
		if _, werr := fmt.Fprintln(w, string(resp.Body)); werr != nil {
			return werr
		}
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
