package catalog

// Turbofan returns the built-in turbofan architecting catalog: a single-spool
// turbojet core extended with the classic architecting choices (fan/bypass,
// counter-rotating fan, shaft count, gearbox, inter-turbine burner, mixed
// exhaust, intercooling, customer bleed offtake).
//
// The returned catalog is already validated.
func Turbofan() *Catalog {
	shaftPort := func(name string) Port {
		return Port{Name: name, Direction: Out, Flow: FlowMech, Cardinality: ExactlyOne}
	}
	spool := func(name string) Port {
		return Port{Name: name, Direction: In, Flow: FlowMech, Cardinality: Many}
	}
	airIn := func(name string) Port {
		return Port{Name: name, Direction: In, Flow: FlowAir, Cardinality: ExactlyOne}
	}
	airOut := func(name string) Port {
		return Port{Name: name, Direction: Out, Flow: FlowAir, Cardinality: ExactlyOne}
	}
	cont := func(name string, min, max float64) Attribute {
		return Attribute{Name: name, Domain: Domain{Kind: Continuous, Min: min, Max: max}}
	}
	fuel := Attribute{Name: "fuel", Domain: Domain{
		Kind:    Categorical,
		Options: []string{"jet-a", "jp-7", "h2", "methane"},
	}}

	cat := &Catalog{
		Name: "turbofan",
		Functions: []Function{
			{ID: "intake", Required: true, Candidates: []string{"inlet"}},
			{ID: "bypass", Candidates: []string{"fan", "crtf_fan"}},
			{ID: "flow_split", Candidates: []string{"splitter"}},
			{ID: "low_compression", Candidates: []string{"lpc"}},
			{ID: "mid_compression", Candidates: []string{"ipc"}},
			{ID: "intercooling", Candidates: []string{"intercooler"}},
			{ID: "high_compression", Required: true, Candidates: []string{"hpc"}},
			{ID: "combustion", Required: true, Candidates: []string{"burner"}},
			{ID: "high_expansion", Required: true, Candidates: []string{"hpt"}},
			{ID: "reheat", Candidates: []string{"itb"}},
			{ID: "low_expansion", Candidates: []string{"lpt"}},
			{ID: "mixing", Candidates: []string{"mixer"}},
			{ID: "core_exhaust", Required: true, Candidates: []string{"conv_nozzle", "cd_nozzle"}},
			{ID: "bypass_exhaust", Candidates: []string{"bypass_nozzle"}},
			{ID: "power_transmission", Required: true, Candidates: []string{"single_shaft", "two_shaft", "three_shaft"}},
			{ID: "gear_reduction", Candidates: []string{"gearbox"}},
			{ID: "offtake", Candidates: []string{"customer_bleed"}},
		},
		Components: []Component{
			{
				ID: "inlet", Fulfills: "intake",
				Ports: []Port{airOut("out")},
			},
			{
				ID: "fan", Fulfills: "bypass",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("fpr", 1.1, 1.8)},
			},
			{
				ID: "crtf_fan", Fulfills: "bypass",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("fpr", 1.1, 1.8), cont("torque_ratio", 0.3, 0.7)},
			},
			{
				ID: "splitter", Fulfills: "flow_split",
				Ports:      []Port{airIn("in"), airOut("core_out"), airOut("bypass_out")},
				Attributes: []Attribute{cont("bpr", 2.0, 12.5)},
			},
			{
				ID: "lpc", Fulfills: "low_compression",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("pr", 1.1, 8.0)},
			},
			{
				ID: "ipc", Fulfills: "mid_compression",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("pr", 1.1, 8.0)},
			},
			{
				ID: "intercooler", Fulfills: "intercooling",
				Ports:      []Port{airIn("in"), airOut("out")},
				Attributes: []Attribute{cont("effectiveness", 0.5, 0.95)},
			},
			{
				ID: "hpc", Fulfills: "high_compression",
				Ports: []Port{
					airIn("in"), airOut("out"), shaftPort("shaft"),
					{Name: "bleed_out", Direction: Out, Flow: FlowBleed, Cardinality: ZeroOrOne},
				},
				Attributes: []Attribute{
					cont("pr", 3.0, 20.0),
					{Name: "stages", Domain: Domain{Kind: Integer, Levels: []float64{6, 8, 10, 12, 14}}},
				},
			},
			{
				ID: "burner", Fulfills: "combustion",
				Ports:      []Port{airIn("in"), airOut("out")},
				Attributes: []Attribute{fuel},
			},
			{
				ID: "hpt", Fulfills: "high_expansion",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("eff", 0.85, 0.93)},
			},
			{
				ID: "itb", Fulfills: "reheat",
				Ports:      []Port{airIn("in"), airOut("out")},
				Attributes: []Attribute{fuel},
			},
			{
				ID: "lpt", Fulfills: "low_expansion",
				Ports:      []Port{airIn("in"), airOut("out"), shaftPort("shaft")},
				Attributes: []Attribute{cont("eff", 0.85, 0.93)},
			},
			{
				ID: "mixer", Fulfills: "mixing",
				Ports: []Port{airIn("core_in"), airIn("bypass_in"), airOut("out")},
			},
			{
				ID: "conv_nozzle", Fulfills: "core_exhaust",
				Ports: []Port{airIn("in")},
			},
			{
				ID: "cd_nozzle", Fulfills: "core_exhaust",
				Ports: []Port{airIn("in")},
			},
			{
				ID: "bypass_nozzle", Fulfills: "bypass_exhaust",
				Ports: []Port{airIn("in")},
			},
			{
				ID: "single_shaft", Fulfills: "power_transmission",
				Ports:      []Port{spool("spool")},
				Attributes: []Attribute{cont("rpm", 1000, 20000)},
			},
			{
				ID: "two_shaft", Fulfills: "power_transmission",
				Ports:      []Port{spool("hp_spool"), spool("lp_spool")},
				Attributes: []Attribute{cont("rpm_hp", 5000, 20000), cont("rpm_lp", 1000, 10000)},
			},
			{
				ID: "three_shaft", Fulfills: "power_transmission",
				Ports: []Port{spool("hp_spool"), spool("ip_spool"), spool("lp_spool")},
				Attributes: []Attribute{
					cont("rpm_hp", 5000, 20000),
					cont("rpm_ip", 3000, 14000),
					cont("rpm_lp", 1000, 10000),
				},
			},
			{
				ID: "gearbox", Fulfills: "gear_reduction",
				Ports: []Port{
					{Name: "fan_side", Direction: In, Flow: FlowMech, Cardinality: ExactlyOne},
					{Name: "shaft_side", Direction: Out, Flow: FlowMech, Cardinality: ExactlyOne},
				},
				Attributes: []Attribute{cont("ratio", 1.0, 5.0)},
			},
			{
				ID: "customer_bleed", Fulfills: "offtake",
				Ports:      []Port{{Name: "in", Direction: In, Flow: FlowBleed, Cardinality: ExactlyOne}},
				Attributes: []Attribute{cont("frac", 0.01, 0.1)},
			},
		},
		Rules: []Rule{
			// Air path, inlet to exhaust.
			{From: PortRef{"inlet", "out"}, To: []PortRef{{"fan", "in"}, {"crtf_fan", "in"}, {"lpc", "in"}, {"hpc", "in"}}},
			{From: PortRef{"fan", "out"}, To: []PortRef{{"splitter", "in"}}},
			{From: PortRef{"crtf_fan", "out"}, To: []PortRef{{"splitter", "in"}}},
			{From: PortRef{"splitter", "core_out"}, To: []PortRef{{"lpc", "in"}, {"ipc", "in"}, {"hpc", "in"}}},
			{From: PortRef{"splitter", "bypass_out"}, To: []PortRef{{"bypass_nozzle", "in"}, {"mixer", "bypass_in"}}},
			{From: PortRef{"lpc", "out"}, To: []PortRef{{"ipc", "in"}, {"intercooler", "in"}, {"hpc", "in"}}},
			{From: PortRef{"ipc", "out"}, To: []PortRef{{"intercooler", "in"}, {"hpc", "in"}}},
			{From: PortRef{"intercooler", "out"}, To: []PortRef{{"hpc", "in"}}},
			{From: PortRef{"hpc", "out"}, To: []PortRef{{"burner", "in"}}},
			{From: PortRef{"burner", "out"}, To: []PortRef{{"hpt", "in"}}},
			{From: PortRef{"hpt", "out"}, To: []PortRef{{"itb", "in"}, {"lpt", "in"}, {"mixer", "core_in"}, {"conv_nozzle", "in"}, {"cd_nozzle", "in"}}},
			{From: PortRef{"itb", "out"}, To: []PortRef{{"lpt", "in"}}},
			{From: PortRef{"lpt", "out"}, To: []PortRef{{"mixer", "core_in"}, {"conv_nozzle", "in"}, {"cd_nozzle", "in"}}},
			{From: PortRef{"mixer", "out"}, To: []PortRef{{"conv_nozzle", "in"}, {"cd_nozzle", "in"}}},
			// Bleed offtake.
			{From: PortRef{"hpc", "bleed_out"}, To: []PortRef{{"customer_bleed", "in"}}},
			// Mechanical path, turbomachinery to spools.
			{From: PortRef{"fan", "shaft"}, To: []PortRef{{"gearbox", "fan_side"}, {"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "lp_spool"}}},
			{From: PortRef{"crtf_fan", "shaft"}, To: []PortRef{{"gearbox", "fan_side"}, {"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "lp_spool"}}},
			{From: PortRef{"gearbox", "shaft_side"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "lp_spool"}}},
			{From: PortRef{"lpc", "shaft"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "lp_spool"}, {"three_shaft", "ip_spool"}}},
			{From: PortRef{"ipc", "shaft"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "ip_spool"}}},
			{From: PortRef{"hpc", "shaft"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "hp_spool"}, {"three_shaft", "hp_spool"}}},
			{From: PortRef{"hpt", "shaft"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "hp_spool"}, {"three_shaft", "hp_spool"}}},
			{From: PortRef{"lpt", "shaft"}, To: []PortRef{{"single_shaft", "spool"}, {"two_shaft", "lp_spool"}, {"three_shaft", "lp_spool"}, {"three_shaft", "ip_spool"}}},
		},
	}

	if err := cat.Validate(); err != nil {
		panic(err)
	}
	return cat
}
