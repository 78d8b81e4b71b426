package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SupportedExchanges lists the exchanges a trading section may name.
var SupportedExchanges = []string{"binance", "coinbase", "kraken", "bybit"}

// TradingSettings is the validated trading section.
type TradingSettings struct {
	Exchange       string  `json:"exchange" validate:"exchange"`
	Symbol         string  `json:"symbol" validate:"required"`
	Timeframe      string  `json:"timeframe" validate:"required"`
	InitialCapital float64 `json:"initial_capital" validate:"gt=0"`
}

// EvolutionSettings is the validated evolution section.
type EvolutionSettings struct {
	PopulationSize int     `json:"population_size" validate:"gt=0"`
	Generations    int     `json:"generations" validate:"gt=0"`
	MutationRate   float64 `json:"mutation_rate" validate:"gte=0,lte=1"`
	CrossoverRate  float64 `json:"crossover_rate" validate:"gte=0,lte=1"`
	EliteCount     int     `json:"elite_count" validate:"gte=0"`
}

// RiskSettings holds risk thresholds expressed as fractions of capital.
type RiskSettings struct {
	MaxPositionSize float64 `json:"max_position_size" validate:"gte=0,lte=1"`
	StopLossPct     float64 `json:"stop_loss_pct" validate:"gte=0,lte=1"`
	TakeProfitPct   float64 `json:"take_profit_pct" validate:"gte=0,lte=1"`
	MaxDailyLoss    float64 `json:"max_daily_loss" validate:"gte=0,lte=1"`
}

// DefaultTradingSettings returns the built-in trading section.
func DefaultTradingSettings() TradingSettings {
	return TradingSettings{
		Exchange:       "binance",
		Symbol:         "BTC/USDT",
		Timeframe:      "1h",
		InitialCapital: 10000.0,
	}
}

// DefaultEvolutionSettings returns the built-in evolution section.
func DefaultEvolutionSettings() EvolutionSettings {
	return EvolutionSettings{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.1,
		CrossoverRate:  0.7,
		EliteCount:     5,
	}
}

// DefaultRiskSettings returns the built-in risk section.
func DefaultRiskSettings() RiskSettings {
	return RiskSettings{
		MaxPositionSize: 0.1,
		StopLossPct:     0.02,
		TakeProfitPct:   0.05,
		MaxDailyLoss:    0.03,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("exchange", func(fl validator.FieldLevel) bool {
		return slices.Contains(SupportedExchanges, fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("settings: register exchange validation: %v", err))
	}
	return v
}

// ValidateTrading checks the trading constraints and returns nil or a *ValidationError.
func ValidateTrading(s TradingSettings) error {
	return validateSection(SectionTrading, s)
}

// ValidateEvolution checks the evolution constraints and returns nil or a *ValidationError.
func ValidateEvolution(s EvolutionSettings) error {
	return validateSection(SectionEvolution, s)
}

// ValidateRisk checks that every risk threshold is a fraction in [0,1].
func ValidateRisk(s RiskSettings) error {
	return validateSection(SectionRisk, s)
}

func validateSection(section string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s settings: %w", section, err)
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, violationFor(fe))
	}
	return &ValidationError{Section: section, Violations: violations}
}

func violationFor(fe validator.FieldError) Violation {
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}

	var msg string
	switch fe.Tag() {
	case "exchange":
		msg = fmt.Sprintf("must be one of %v, got %q", SupportedExchanges, fe.Value())
	case "required":
		msg = "is required"
	case "gt":
		msg = fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		msg = fmt.Sprintf("must be greater than or equal to %s, got %v", fe.Param(), fe.Value())
	case "lte":
		msg = fmt.Sprintf("must be less than or equal to %s, got %v", fe.Param(), fe.Value())
	default:
		msg = fmt.Sprintf("failed %s validation", rule)
	}

	return Violation{Field: fe.Field(), Rule: rule, Message: msg}
}

// decodeSection overlays the named section of raw onto dst, which must hold
// the section defaults. Type mismatches are reported as violations.
func decodeSection(raw RawConfig, section string, dst any) error {
	value, ok := raw[section]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingSection, section)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return &ValidationError{
			Section: section,
			Violations: []Violation{{
				Field:   section,
				Rule:    "object",
				Message: fmt.Sprintf("must be an object, got %T", value),
			}},
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode %s section: %w", section, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{
				Section: section,
				Violations: []Violation{{
					Field:   typeErr.Field,
					Rule:    "type",
					Message: fmt.Sprintf("must be %s, got %s", typeErr.Type, typeErr.Value),
				}},
			}
		}
		return fmt.Errorf("decode %s section: %w", section, err)
	}

	return nil
}
