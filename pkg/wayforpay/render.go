package wayforpay

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"sort"
	"strings"
	texttemplate "text/template"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
)

const (
	// WidgetScriptURL serves the gateway's embeddable checkout widget
	WidgetScriptURL = "https://secure.wayforpay.com/server/pay-widget.js"
	// DefaultWidgetHandler is the message listener registered when none is given
	DefaultWidgetHandler = "receiveMessage"
)

// Widget lifecycle events posted to the host page
var WidgetEvents = []string{
	"WfpWidgetEventClose",
	"WfpWidgetEventApproved",
	"WfpWidgetEventDeclined",
	"WfpWidgetEventPending",
}

var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

type formInput struct {
	Name  string
	Value string
}

// formInputs flattens prepared into name/value pairs in key order.
// Array values yield one "name[]" pair per element.
func formInputs(prepared Fields) []formInput {
	keys := make([]string, 0, len(prepared))
	for k := range prepared {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inputs := make([]formInput, 0, len(keys))
	for _, k := range keys {
		if list, ok := ListValues(prepared[k]); ok {
			for _, v := range list {
				inputs = append(inputs, formInput{Name: k + "[]", Value: v})
			}
			continue
		}
		inputs = append(inputs, formInput{Name: k, Value: FormatValue(prepared[k])})
	}
	return inputs
}

// QueryValues encodes prepared the way the checkout page reads it
func QueryValues(prepared Fields) url.Values {
	values := url.Values{}
	for _, in := range formInputs(prepared) {
		values.Add(in.Name, in.Value)
	}
	return values
}

// PurchaseURL renders a checkout link for a prepared PURCHASE field set
func (c *Client) PurchaseURL(prepared Fields) string {
	return strings.TrimRight(c.purchaseURL, "/") + "/get?" + QueryValues(prepared).Encode()
}

var formTemplate = template.Must(template.New("form").Parse(
	`<form method="POST" action="{{.Action}}" accept-charset="utf-8">
{{- range .Inputs}}
  <input type="hidden" name="{{.Name}}" value="{{.Value}}" />
{{- end}}
  <input type="submit" value="Pay" />
</form>
`))

// FormHTML renders a self-submitting checkout form for a prepared field set
func (c *Client) FormHTML(prepared Fields) string {
	var b strings.Builder
	data := struct {
		Action string
		Inputs []formInput
	}{
		Action: c.purchaseURL,
		Inputs: formInputs(prepared),
	}
	// Execute only fails on template or writer errors; neither can occur here.
	_ = formTemplate.Execute(&b, data)
	return b.String()
}

var widgetTemplate = texttemplate.Must(texttemplate.New("widget").Parse(
	`<script id="widget-wfp-script" type="text/javascript" src="{{.ScriptURL}}"></script>
<script type="text/javascript">
var wayforpay = new Wayforpay();
var pay = function () {
  wayforpay.run({{.Params}});
};
window.addEventListener("message", {{.Handler}}, false);
{{- if .DefineHandler}}
function {{.Handler}}(event) {
  if ({{range $i, $e := .Events}}{{if $i}} ||
      {{end}}event.data == "{{$e}}"{{end}}) {
    console.log(event.data);
  }
}
{{- end}}
</script>
<button type="button" onclick="pay();">Pay</button>
`))

// WidgetScript renders the widget loader, a pay() launcher bound to prepared
// and a message listener named handler. An empty handler registers and
// defines DefaultWidgetHandler; a custom handler must be defined by the page.
func (c *Client) WidgetScript(prepared Fields, handler string) (string, error) {
	defineHandler := handler == ""
	if defineHandler {
		handler = DefaultWidgetHandler
	}
	if !jsIdentifier.MatchString(handler) {
		return "", pkgerrors.NewValidationError("handler", fmt.Sprintf("%q is not a JavaScript identifier", handler))
	}

	// json.Marshal escapes <, > and & so the params cannot close the script tag
	params, err := json.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("failed to marshal widget params: %w", err)
	}

	var b strings.Builder
	err = widgetTemplate.Execute(&b, struct {
		ScriptURL     string
		Params        string
		Handler       string
		DefineHandler bool
		Events        []string
	}{
		ScriptURL:     WidgetScriptURL,
		Params:        string(params),
		Handler:       handler,
		DefineHandler: defineHandler,
		Events:        WidgetEvents,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render widget: %w", err)
	}
	return b.String(), nil
}

// GeneratePurchaseURL prepares fields as a PURCHASE and renders a checkout link
func (c *Client) GeneratePurchaseURL(fields Fields) (string, error) {
	prepared, err := c.Prepare(TransactionTypePurchase, fields)
	if err != nil {
		return "", err
	}
	return c.PurchaseURL(prepared), nil
}

// BuildForm prepares fields as a PURCHASE and renders a checkout form
func (c *Client) BuildForm(fields Fields) (string, error) {
	prepared, err := c.Prepare(TransactionTypePurchase, fields)
	if err != nil {
		return "", err
	}
	return c.FormHTML(prepared), nil
}

// BuildWidgetButton prepares fields as a PURCHASE and renders the widget
// launcher. handler is optional.
func (c *Client) BuildWidgetButton(fields Fields, handler ...string) (string, error) {
	prepared, err := c.Prepare(TransactionTypePurchase, fields)
	if err != nil {
		return "", err
	}
	name := ""
	if len(handler) > 0 {
		name = handler[0]
	}
	return c.WidgetScript(prepared, name)
}
