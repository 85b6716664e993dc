package scheme

// imgtRegions returns the IMGT unique numbering region boundaries.
// IMGT defines the same boundaries for heavy and light chains.
func imgtRegions() map[ChainType]map[RegionName]PositionRange {
	regions := map[RegionName]PositionRange{
		FR1:  span(1, 26),
		CDR1: span(27, 38),
		FR2:  span(39, 55),
		CDR2: span(56, 65),
		FR3:  span(66, 104),
		CDR3: span(105, 117),
		FR4:  span(118, 128),
	}
	return map[ChainType]map[RegionName]PositionRange{
		Heavy:  regions,
		Lambda: regions,
	}
}
