package formatting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"habitat/internal/api"
	"habitat/internal/orchestrator"
)

type tableFormatter struct {
	options Options
}

func (f *tableFormatter) FormatEnvironmentList(infos []api.EnvironmentInfo) (string, error) {
	if len(infos) == 0 {
		return f.emptyMessage("No environments found"), nil
	}

	sorted := make([]api.EnvironmentInfo, len(infos))
	copy(sorted, infos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	t := f.newTable()
	t.AppendHeader(table.Row{"ID", "NAME", "KIND", "STATUS", "OWNER", "UPTIME", "COST/H"})
	for _, info := range sorted {
		t.AppendRow(table.Row{
			shorten(info.ID),
			info.Name,
			info.Kind,
			f.colorStatus(info.Status),
			info.Owner,
			formatUptime(info.Uptime),
			fmt.Sprintf("$%.2f", info.Cost.HourlyUSD),
		})
	}
	return t.Render(), nil
}

func (f *tableFormatter) FormatEnvironmentDetail(info *api.EnvironmentInfo) (string, error) {
	t := f.newTable()
	t.AppendHeader(table.Row{"FIELD", "VALUE"})
	t.AppendRows([]table.Row{
		{"ID", info.ID},
		{"Name", info.Name},
		{"Template", info.TemplateID},
		{"Kind", info.Kind},
		{"Status", f.colorStatus(info.Status)},
		{"Owner", info.Owner},
		{"Instances", info.Instances},
		{"Memory", fmt.Sprintf("%.1f Gi", info.Resources.MemoryGi)},
		{"CPU", fmt.Sprintf("%dm", info.Resources.CPUMillis)},
		{"Created", info.CreatedAt.Format(time.RFC3339)},
		{"Uptime", formatUptime(info.Uptime)},
		{"Cost", fmt.Sprintf("$%.2f/h ($%.2f total)", info.Cost.HourlyUSD, info.Cost.TotalUSD)},
	})
	if len(info.Collaborators) > 0 {
		t.AppendRow(table.Row{"Collaborators", strings.Join(info.Collaborators, ", ")})
	}
	if info.Health != nil {
		t.AppendRow(table.Row{"Health", string(info.Health.Status)})
	}
	for name, url := range info.Endpoints {
		t.AppendRow(table.Row{"Endpoint: " + name, url})
	}
	return t.Render(), nil
}

func (f *tableFormatter) FormatTemplateList(templates []*api.EnvironmentTemplate) (string, error) {
	if len(templates) == 0 {
		return f.emptyMessage("No templates registered"), nil
	}

	t := f.newTable()
	t.AppendHeader(table.Row{"ID", "NAME", "KIND", "MEMORY", "CPU", "TAGS"})
	for _, tmpl := range templates {
		t.AppendRow(table.Row{
			tmpl.ID,
			tmpl.Name,
			tmpl.Kind,
			fmt.Sprintf("%.1f Gi", tmpl.Resources.MemoryGi),
			fmt.Sprintf("%dm", tmpl.Resources.CPUMillis),
			strings.Join(tmpl.Tags, ", "),
		})
	}
	return t.Render(), nil
}

func (f *tableFormatter) FormatUsage(report orchestrator.UsageReport) (string, error) {
	t := f.newTable()
	t.AppendHeader(table.Row{"METRIC", "VALUE"})
	t.AppendRows([]table.Row{
		{"Environments", fmt.Sprintf("%d / %d", report.Usage.TotalEnvironments, report.Limits.MaxTotalEnvironments)},
		{"Ready", report.Usage.ReadyEnvironments},
		{"Memory allocated", fmt.Sprintf("%.1f Gi", report.Usage.MemoryGi)},
		{"CPU allocated", fmt.Sprintf("%.1f cores", report.Usage.CPUCores)},
		{"Per-owner limit", report.Limits.MaxEnvironmentsPerOwner},
	})
	return t.Render(), nil
}

func (f *tableFormatter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *tableFormatter) emptyMessage(message string) string {
	if f.options.Quiet {
		return message
	}
	return text.FgYellow.Sprint(message)
}

func (f *tableFormatter) colorStatus(status api.EnvironmentState) string {
	if f.options.Quiet {
		return string(status)
	}
	switch status {
	case api.StateReady:
		return text.FgGreen.Sprint(status)
	case api.StateError:
		return text.FgRed.Sprint(status)
	case api.StateProvisioning, api.StateScaling, api.StateUpdating:
		return text.FgYellow.Sprint(status)
	default:
		return string(status)
	}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
