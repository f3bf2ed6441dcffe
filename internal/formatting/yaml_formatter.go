package formatting

import (
	"gopkg.in/yaml.v3"

	"habitat/internal/api"
	"habitat/internal/orchestrator"
)

type yamlFormatter struct{}

func (f *yamlFormatter) FormatEnvironmentList(infos []api.EnvironmentInfo) (string, error) {
	return f.marshal(infos)
}

func (f *yamlFormatter) FormatEnvironmentDetail(info *api.EnvironmentInfo) (string, error) {
	return f.marshal(info)
}

func (f *yamlFormatter) FormatTemplateList(templates []*api.EnvironmentTemplate) (string, error) {
	return f.marshal(templates)
}

func (f *yamlFormatter) FormatUsage(report orchestrator.UsageReport) (string, error) {
	return f.marshal(report)
}

func (f *yamlFormatter) marshal(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
