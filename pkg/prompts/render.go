package prompts

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SystemPrompt describes the hierarchy and the reply schema. The reply keys match what
// clustereval.Parse reads.
func SystemPrompt() string {
	return strings.Join([]string{
		"You are an industry classification expert who assists with clustering output evaluation and cluster description writing.",
		"You understand there are four levels of industry classifications from top to bottom: sector, industry, sub-industry and theme.",
		"Sector is the broadest category representing major economic segments.",
		"Industry is a more specific category that groups companies based on similar operational characteristics within a sector.",
		"Sub-Industry is an even more detailed category that identifies particular niches or market segments within an industry.",
		"Theme is the most granular level, focusing on current trends, technologies, or business practices shaping industries.",
		"You understand industry and sub-industry are targets for clustering.",
		"They are not described with natural language like themes and sectors are.",
		"They only have integer cluster labels.",
		"You understand all your responses should take json format.",
		`Your response should take the following schema: {"INT_CLUSTER_LABEL": {"cluster_label": ONE_PHRASE_TEXT_LABEL, "evaluation_note": QUALITY_ASSESSMENT_NOTE}}.`,
		"Your note should be concise and to the point.",
		"Your note should not be more than three sentences long.",
		"Your note should be very short for good quality clusters and longer if otherwise.",
	}, " ")
}

// SubIndustryMessage asks for labels and notes of the SubIndustry clusters in inputs.
func SubIndustryMessage(inputs []SubIndustryInput) (string, error) {
	var b bytes.Buffer
	b.WriteString("Here's the clustering result for themes on sub industry level. ")
	b.WriteString("Can you provide text labels of sub industry clusters and provide evaluation note for each cluster?\n")
	entries := make([]entry, len(inputs))
	for i, in := range inputs {
		entries[i] = entry{label: int64(in.Label), value: in.Themes}
	}
	if err := writeObject(&b, entries); err != nil {
		return "", err
	}
	return b.String(), nil
}

// IndustryMessage asks for labels and notes of the Industry clusters in inputs.
func IndustryMessage(inputs []IndustryInput) (string, error) {
	var b bytes.Buffer
	b.WriteString("Here's the clustering result for sub industries on industry level. ")
	b.WriteString("Can you provide text labels of industry clusters and provide evaluation note for each cluster?\n")
	entries := make([]entry, len(inputs))
	for i, in := range inputs {
		entries[i] = entry{label: int64(in.Label), value: in.SubIndustries}
	}
	if err := writeObject(&b, entries); err != nil {
		return "", err
	}
	return b.String(), nil
}

type entry struct {
	label int64
	value any
}

// writeObject renders entries as a JSON object, one key per line, keeping the given order
// so labels stay numerically sorted.
func writeObject(b *bytes.Buffer, entries []entry) error {
	if len(entries) == 0 {
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{\n")
	for i, e := range entries {
		v, err := json.Marshal(e.value)
		if err != nil {
			return err
		}
		b.WriteString("  ")
		b.WriteString(strconv.Quote(strconv.FormatInt(e.label, 10)))
		b.WriteString(": ")
		b.Write(v)
		if i < len(entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return nil
}
