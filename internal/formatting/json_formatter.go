package formatting

import (
	"encoding/json"

	"habitat/internal/api"
	"habitat/internal/orchestrator"
)

type jsonFormatter struct{}

func (f *jsonFormatter) FormatEnvironmentList(infos []api.EnvironmentInfo) (string, error) {
	return f.marshal(infos)
}

func (f *jsonFormatter) FormatEnvironmentDetail(info *api.EnvironmentInfo) (string, error) {
	return f.marshal(info)
}

func (f *jsonFormatter) FormatTemplateList(templates []*api.EnvironmentTemplate) (string, error) {
	return f.marshal(templates)
}

func (f *jsonFormatter) FormatUsage(report orchestrator.UsageReport) (string, error) {
	return f.marshal(report)
}

func (f *jsonFormatter) marshal(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
