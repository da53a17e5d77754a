package judge

import (
	"encoding/json"
	"strings"

	"aijudge/pkg/schema"
	"aijudge/pkg/utils"
)

const (
	summaryMaxRunes = 140

	defaultVerdict    = "판단 요약을 제공하지 못했습니다."
	defaultDisclaimer = "법률 자문이 아니며 참고용입니다."
	noStorySummary    = "입력된 사연이 없습니다."
	disclaimerSuffix  = " (법률 자문이 아님)"
)

// ExtractJSON recovers the first JSON object from model output. Prose, code
// fences and trailing text around the object are ignored.
func ExtractJSON(text string) (map[string]any, bool) {
	var whole any
	if err := json.Unmarshal([]byte(text), &whole); err == nil {
		if obj, ok := whole.(map[string]any); ok {
			return obj, true
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// Normalize coerces a recovered object into a Judgment. The result always
// has a summary, a verdict and a disclaimer containing schema.DisclaimerMarker.
func Normalize(obj map[string]any, story string) schema.Judgment {
	summary := field(obj, "summary")
	if summary == "" {
		summary = shortStory(story)
	}
	verdict := field(obj, "verdict")
	if verdict == "" {
		verdict = defaultVerdict
	}

	raw, ok := obj["possible_crimes"]
	if !ok {
		raw = obj["possibleCrimes"]
	}
	crimes := []schema.Crime{}
	if items, ok := raw.([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			title, basis := field(m, "title"), field(m, "basis")
			if title == "" || basis == "" {
				continue
			}
			crimes = append(crimes, schema.Crime{
				Title:    title,
				Basis:    basis,
				Severity: NormalizeSeverity(field(m, "severity")),
			})
		}
	}

	return schema.Judgment{
		Summary:        summary,
		PossibleCrimes: crimes,
		Verdict:        verdict,
		Disclaimer:     disclaimer(field(obj, "disclaimer")),
	}
}

var severities = map[string]schema.Severity{
	"경미": schema.SeverityLow, "low": schema.SeverityLow, "minor": schema.SeverityLow,
	"낮음": schema.SeverityLow, "경미함": schema.SeverityLow, "가벼움": schema.SeverityLow,

	"중간": schema.SeverityMedium, "medium": schema.SeverityMedium, "moderate": schema.SeverityMedium,
	"보통": schema.SeverityMedium, "중간정도": schema.SeverityMedium,

	"중대": schema.SeverityHigh, "high": schema.SeverityHigh, "major": schema.SeverityHigh,
	"severe": schema.SeverityHigh, "critical": schema.SeverityHigh,
	"높음": schema.SeverityHigh, "심각": schema.SeverityHigh, "중함": schema.SeverityHigh,
}

// NormalizeSeverity maps a Korean or English severity word to the enum.
// Unknown or empty input is MEDIUM.
func NormalizeSeverity(s string) schema.Severity {
	if sev, ok := severities[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sev
	}
	return schema.SeverityMedium
}

// Fallback is the Judgment returned when no model output could be used.
func Fallback(story, verdict string) schema.Judgment {
	return schema.Judgment{
		Summary:        shortStory(story),
		PossibleCrimes: []schema.Crime{},
		Verdict:        verdict,
		Disclaimer:     defaultDisclaimer,
	}
}

func disclaimer(s string) string {
	if s == "" {
		s = defaultDisclaimer
	}
	if !strings.Contains(s, schema.DisclaimerMarker) {
		s += disclaimerSuffix
	}
	return s
}

func shortStory(story string) string {
	story = strings.TrimSpace(story)
	if story == "" {
		return noStorySummary
	}
	return utils.LimitStr(story, summaryMaxRunes)
}

// field returns obj[key] as a trimmed string. Values of any other JSON type
// count as missing.
func field(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return strings.TrimSpace(v)
}
