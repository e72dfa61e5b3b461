package models

import (
	"github.com/goccy/go-json"
)

// ModifyOptions is the full replacement record for a subscription. Every field is
// required; a nil field means it was not supplied.
type ModifyOptions struct {
	Category        *string   `json:"category"`
	SubKeywords     *[]string `json:"sub_keywords"`
	UnsubKeywords   *[]string `json:"unsub_keywords"`
	SubAction       *string   `json:"sub_action"`
	UnsubAction     *string   `json:"unsub_action"`
	SubActionType   *string   `json:"sub_action_type"`
	UnsubActionType *string   `json:"unsub_action_type"`
}

// Validate reports every missing field at once.
func (o ModifyOptions) Validate() error {
	verr := &ValidationError{}
	checkString(verr, "category", o.Category)
	checkList(verr, "sub_keywords", o.SubKeywords)
	checkList(verr, "unsub_keywords", o.UnsubKeywords)
	checkString(verr, "sub_action", o.SubAction)
	checkString(verr, "unsub_action", o.UnsubAction)
	checkString(verr, "sub_action_type", o.SubActionType)
	checkString(verr, "unsub_action_type", o.UnsubActionType)
	return verr.orNil()
}

func checkString(verr *ValidationError, name string, v *string) {
	if v == nil {
		verr.addf("%s is required and must be a string", name)
	}
}

func checkList(verr *ValidationError, name string, v *[]string) {
	if v == nil {
		verr.addf("%s is required and must be an array", name)
	}
}

// DecodeModifyOptions reads options from an untyped JSON object. Fields of the
// wrong type are reported alongside missing ones; unknown fields are dropped.
func DecodeModifyOptions(data []byte) (ModifyOptions, error) {
	var opts ModifyOptions
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return opts, &ValidationError{Violations: []string{"options must be a JSON object"}}
	}

	verr := &ValidationError{}
	opts.Category = decodeString(verr, raw, "category")
	opts.SubKeywords = decodeList(verr, raw, "sub_keywords")
	opts.UnsubKeywords = decodeList(verr, raw, "unsub_keywords")
	opts.SubAction = decodeString(verr, raw, "sub_action")
	opts.UnsubAction = decodeString(verr, raw, "unsub_action")
	opts.SubActionType = decodeString(verr, raw, "sub_action_type")
	opts.UnsubActionType = decodeString(verr, raw, "unsub_action_type")
	if len(verr.Violations) > 0 {
		return opts, verr
	}
	return opts, opts.Validate()
}

func decodeString(verr *ValidationError, raw map[string]json.RawMessage, name string) *string {
	msg, ok := raw[name]
	if !ok || string(msg) == "null" {
		verr.addf("%s is required and must be a string", name)
		return nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.addf("%s must be a string", name)
		return nil
	}
	return &s
}

func decodeList(verr *ValidationError, raw map[string]json.RawMessage, name string) *[]string {
	msg, ok := raw[name]
	if !ok || string(msg) == "null" {
		verr.addf("%s is required and must be an array", name)
		return nil
	}
	var list []string
	if err := json.Unmarshal(msg, &list); err != nil {
		verr.addf("%s must be an array of strings", name)
		return nil
	}
	if list == nil {
		list = []string{}
	}
	return &list
}

// OptionsFrom returns options that rewrite a subscription with its current values.
func OptionsFrom(s Subscription) ModifyOptions {
	sub := append([]string{}, s.SubKeywords...)
	unsub := append([]string{}, s.UnsubKeywords...)
	return ModifyOptions{
		Category:        &s.Category,
		SubKeywords:     &sub,
		UnsubKeywords:   &unsub,
		SubAction:       &s.SubAction,
		UnsubAction:     &s.UnsubAction,
		SubActionType:   &s.SubActionType,
		UnsubActionType: &s.UnsubActionType,
	}
}
