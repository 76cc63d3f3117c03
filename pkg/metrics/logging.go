package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

const redactedValue = "<redacted>"

// Fields that are never forwarded, since they're settlement secrets or
// credentials
var defaultRedactedFields = []string{"preimage", "macaroon", "password"}

// CustomNewRelicContextLogFormatter is a logrus.Formatter that forwards logs to
// New Relic, including all logrus.Entry.Fields, which isn't supported out of
// the box.
//
// Based off of: https://github.com/newrelic/go-agent/blob/f1942e10f0819e2c854d5d7289eb0dc1c52a00af/v3/integrations/logcontext-v2/nrlogrus/formatter.go
type CustomNewRelicContextLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
	redacted  map[string]struct{}
}

func NewCustomNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter, redactedFields ...string) CustomNewRelicContextLogFormatter {
	redacted := make(map[string]struct{})
	for _, field := range append(defaultRedactedFields, redactedFields...) {
		redacted[field] = struct{}{}
	}

	return CustomNewRelicContextLogFormatter{
		app:       app,
		formatter: formatter,
		redacted:  redacted,
	}
}

func (f CustomNewRelicContextLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  forwardedMessage(e, f.redacted),
	}

	logBytes, err := f.formatter.Format(redactEntry(e, f.redacted))
	if err != nil {
		return nil, err
	}
	logBytes = bytes.TrimRight(logBytes, "\n")
	b := bytes.NewBuffer(logBytes)

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}
	if txn != nil {
		txn.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteString("\n")
	return b.Bytes(), nil
}

// forwardedMessage flattens an entry's message, error and fields into the
// single line New Relic receives
func forwardedMessage(e *logrus.Entry, redacted map[string]struct{}) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	extraData := make(map[string]interface{})
	for k, v := range e.Data {
		if k == logrus.ErrorKey {
			if typed, ok := v.(error); ok {
				errorString = fmt.Sprintf("\"%s\"", typed.Error())
			}
			continue
		}

		if _, ok := redacted[k]; ok {
			v = redactedValue
		}
		extraData[k] = v
	}

	// encoding/json sorts map keys, so the output is stable
	extraDataJsonBytes, err := json.Marshal(extraData)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=\"%s\", error=%s, data=%s", e.Message, errorString, string(extraDataJsonBytes))
}

func redactEntry(e *logrus.Entry, redacted map[string]struct{}) *logrus.Entry {
	var needsRedaction bool
	for k := range e.Data {
		if _, ok := redacted[k]; ok {
			needsRedaction = true
			break
		}
	}
	if !needsRedaction {
		return e
	}

	cloned := *e
	cloned.Data = make(logrus.Fields, len(e.Data))
	for k, v := range e.Data {
		if _, ok := redacted[k]; ok {
			v = redactedValue
		}
		cloned.Data[k] = v
	}
	return &cloned
}
