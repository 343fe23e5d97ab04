// Package pixelsift recovers a small image hidden in a larger one at a
// fixed pixel stride, repairs the carrier at the sampled pixels and ties
// every derived artifact back to its source with a SHA-256 digest of the
// raw samples.
//
// The stages form a state machine tracked by Session:
//
//	Loaded   -> HiddenExtracted     (ExtractGrid)
//	Loaded   -> Repaired            (Repair)
//	Repaired -> Reduced             (AverageIntensity)
//	Reduced  -> RoundTripVerified   (ReadIntensityArtifact)
//
// Pipeline runs them in order, writing each artifact through a Codec and
// recording each digest in a ledger.
//
// Image equality is digest equality. Shapes are not compared, so two
// images with the same bytes in different shapes are equal.
package pixelsift
