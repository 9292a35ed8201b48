// Package playlist sequences tracks into ordered sets under a duration
// target and an energy-curve shape.
//
// Selection is greedy with single-step lookahead: at each position the
// generator filters the unused pool down to tracks that are bpm- or
// harmonically-compatible with the current track (plus any caller
// constraint), then picks the highest blend of pair compatibility and
// closeness to the curve's target energy. A bounded, seedable surprise term
// keeps repeated generations from being carbon copies. The output is
// locally best per hop, not globally optimal; that trade-off is documented
// behavior.
package playlist
