// Package physics provides the steady-state flowsheet components of the
// symbiotic factory.
//
// Each component implements [mdo.Component] and reads its inputs by the
// namespace keys of the factory model:
//
//   - [Sun]: solar steam generator producing freshwater
//   - [Water]: algal photobioreactor fixing CO2 into biomass
//   - [Fire]: hydrothermal liquefaction and CO-to-ethanol fermentation
//   - [Terre]: pyrolyzer producing biochar and syngas
//   - [EROI]: systemic energy return on investment
//   - [HTLKinetics], [PyrolysisKinetics]: kinetic refinements of FIRE and TERRE
//   - [Economizer]: counter-current heat recovery on the HTL effluent
//   - [Nutrients]: N and P recycle closure
//   - [Chlorella], [Clostridium]: metabolic flux models of the algae and the fermenter
//   - [Wicking]: capillary water supply to the evaporator membrane
//
// Empirical correlations saturate at documented clamps (crude yield
// window, char yield floor, O:C floors, dielectric floor, HHV cap).
// Inputs outside the physical domain yield an [mdo.DomainError].
//
// Temperatures in the factory namespace are absolute (K) except for the
// economizer, which works in degrees Celsius.
package physics
