package alerting

// RulesConfig — правила фильтрации алертов.
type RulesConfig struct {
	// MinSeverity — "INFO", "WARNING" или "CRITICAL".
	MinSeverity string `yaml:"minSeverity" env:"BR_ALERTING_RULES_MIN_SEVERITY" env-default:"INFO"`

	// ExcludeErrorCodes — коды, по которым алерты не отправляются.
	ExcludeErrorCodes []string `yaml:"excludeErrorCodes" env:"BR_ALERTING_RULES_EXCLUDE_ERRORS" env-separator:","`

	// IncludeScenarios — если задан, алерты только для этих сценариев.
	IncludeScenarios []string `yaml:"includeScenarios" env:"BR_ALERTING_RULES_INCLUDE_SCENARIOS" env-separator:","`

	// Channels — правила конкретных каналов. Полностью заменяют глобальные.
	Channels map[string]ChannelRulesConfig `yaml:"channels"`
}

// ChannelRulesConfig — правила одного канала.
type ChannelRulesConfig struct {
	MinSeverity       string   `yaml:"minSeverity"`
	ExcludeErrorCodes []string `yaml:"excludeErrorCodes"`
	IncludeScenarios  []string `yaml:"includeScenarios"`
}

type ruleSet struct {
	minSeverity       Severity
	excludeErrorCodes map[string]struct{}
	includeScenarios  map[string]struct{}
}

// RulesEngine решает, нужен ли алерт в конкретном канале.
type RulesEngine struct {
	global   ruleSet
	channels map[string]ruleSet
}

// NewRulesEngine строит RulesEngine из конфигурации.
func NewRulesEngine(config RulesConfig) *RulesEngine {
	engine := &RulesEngine{
		global:   newRuleSet(config.MinSeverity, config.ExcludeErrorCodes, config.IncludeScenarios),
		channels: make(map[string]ruleSet, len(config.Channels)),
	}
	for name, ch := range config.Channels {
		engine.channels[name] = newRuleSet(ch.MinSeverity, ch.ExcludeErrorCodes, ch.IncludeScenarios)
	}
	return engine
}

// Evaluate возвращает true, если алерт надо отправить в channel.
// Алерты о восстановлении проходят мимо MinSeverity: иначе при
// MinSeverity=CRITICAL о починке никто не узнает.
func (e *RulesEngine) Evaluate(alert Alert, channel string) bool {
	rule := e.global
	if override, ok := e.channels[channel]; ok {
		rule = override
	}

	if !alert.Resolved && alert.Severity < rule.minSeverity {
		return false
	}
	if _, excluded := rule.excludeErrorCodes[alert.ErrorCode]; excluded {
		return false
	}
	if len(rule.includeScenarios) > 0 {
		if _, ok := rule.includeScenarios[alert.Scenario]; !ok {
			return false
		}
	}
	return true
}

func newRuleSet(minSeverity string, excludeErrors, includeScenarios []string) ruleSet {
	return ruleSet{
		minSeverity:       ParseSeverity(minSeverity),
		excludeErrorCodes: toSet(excludeErrors),
		includeScenarios:  toSet(includeScenarios),
	}
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	s := make(map[string]struct{}, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}
