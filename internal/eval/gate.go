package eval

import "fmt"

// Verdict strings recorded on a model card once the gate has run against it.
// An artifact that has never been through the gate (freshly trained, not yet
// evaluated) leaves its card's verdict field empty rather than using one of
// these.
const (
	VerdictAccepted = "accepted"
	VerdictRejected = "rejected"
)

// Verdict renders the decision as one of the fixed card verdict strings.
func (d Decision) Verdict() string {
	if d.Accept {
		return VerdictAccepted
	}
	return VerdictRejected
}

// GateConfig mirrors config.GateConfig's three thresholds; duplicated here
// (rather than imported) to keep eval free of a dependency on the config
// package — eval is pure measurement and decision logic, wired to concrete
// numbers by its caller rather than reaching for config itself.
type GateConfig struct {
	MinLogLossRelImprovement float64
	MinBrierRelImprovement   float64
	MaxECERegression         float64
}

// Decision is the promotion gate's verdict plus the figures that produced
// it, so a CLI or log line can report exactly why a candidate was accepted
// or rejected.
type Decision struct {
	Accept            bool
	LogLossRelImprove float64
	BrierRelImprove   float64
	ECEDelta          float64
	Reason            string
}

// Evaluate applies the promotion rule: accept a candidate
// over the currently serving model if its calibrated log-loss OR Brier
// score improves by at least the configured relative fraction, AND its ECE
// does not regress by more than the configured absolute tolerance.
func Evaluate(current, candidate Metrics, cfg GateConfig) Decision {
	logLossImprove := relativeImprovement(current.LogLoss, candidate.LogLoss)
	brierImprove := relativeImprovement(current.Brier, candidate.Brier)
	eceDelta := candidate.ECE - current.ECE

	meetsImprovement := logLossImprove >= cfg.MinLogLossRelImprovement || brierImprove >= cfg.MinBrierRelImprovement
	meetsECE := eceDelta <= cfg.MaxECERegression

	d := Decision{
		LogLossRelImprove: logLossImprove,
		BrierRelImprove:   brierImprove,
		ECEDelta:          eceDelta,
	}

	switch {
	case meetsImprovement && meetsECE:
		d.Accept = true
		d.Reason = fmt.Sprintf(
			"accepted: log-loss improved %.1f%%, brier improved %.1f%% (need >=%.1f%% on either), ECE delta %.4f (max regression %.4f)",
			logLossImprove*100, brierImprove*100, minRel(cfg)*100, eceDelta, cfg.MaxECERegression)
	case !meetsImprovement:
		d.Reason = fmt.Sprintf(
			"rejected: neither log-loss (%.1f%%) nor brier (%.1f%%) improvement met the %.1f%% / %.1f%% thresholds",
			logLossImprove*100, brierImprove*100, cfg.MinLogLossRelImprovement*100, cfg.MinBrierRelImprovement*100)
	default:
		d.Reason = fmt.Sprintf(
			"rejected: ECE regressed by %.4f, exceeding the %.4f tolerance despite meeting the improvement threshold",
			eceDelta, cfg.MaxECERegression)
	}
	return d
}

func minRel(cfg GateConfig) float64 {
	if cfg.MinLogLossRelImprovement < cfg.MinBrierRelImprovement {
		return cfg.MinLogLossRelImprovement
	}
	return cfg.MinBrierRelImprovement
}

// relativeImprovement reports how much smaller candidate is than baseline,
// as a fraction of baseline. Positive means improvement (candidate is
// better, i.e. lower, since both log-loss and Brier are "lower is better").
func relativeImprovement(baseline, candidate float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (baseline - candidate) / baseline
}
