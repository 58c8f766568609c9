package nanotag

// Preset is a named configuration.
type Preset struct {
	Name string
	ConfigRequest
}

// Presets are the built-in configurations. Record and report are equal so the
// device sends every measurement as soon as it takes it.
var Presets = []Preset{
	{"30sec", ConfigRequest{RecordPeriod: 30, ReportPeriod: 30, TimeUnit: Seconds}},
	{"1min", ConfigRequest{RecordPeriod: 60, ReportPeriod: 60, TimeUnit: Seconds}},
	{"5min", ConfigRequest{RecordPeriod: 300, ReportPeriod: 300, TimeUnit: Seconds}},
	{"30min", ConfigRequest{RecordPeriod: 1800, ReportPeriod: 1800, TimeUnit: Seconds}},
	{"1hour", ConfigRequest{RecordPeriod: 3600, ReportPeriod: 3600, TimeUnit: Seconds}},
}

// PresetNames returns the preset names in table order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for _, p := range Presets {
		names = append(names, p.Name)
	}
	return names
}

// ResolvePreset looks up a preset by name.
func ResolvePreset(name string) (ConfigRequest, error) {
	for _, p := range Presets {
		if p.Name == name {
			return p.ConfigRequest, nil
		}
	}
	return ConfigRequest{}, &UnknownPresetError{Name: name}
}
