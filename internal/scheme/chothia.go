package scheme

// chothiaRegions returns the Chothia numbering region boundaries.
// The light-chain row and the heavy CDR3/FR4 boundaries match Kabat's;
// heavy CDR1/CDR2 follow structural loop extent rather than sequence
// variability, which also moves the flanking framework boundaries.
func chothiaRegions() map[ChainType]map[RegionName]PositionRange {
	heavy := map[RegionName]PositionRange{
		FR1:  span(1, 25),
		CDR1: span(26, 32),
		FR2:  span(33, 51),
		CDR2: span(52, 56),
		FR3:  span(57, 94),
		CDR3: span(95, 102),
		FR4:  span(103, 113),
	}
	light := map[RegionName]PositionRange{
		FR1:  span(1, 23),
		CDR1: span(24, 34),
		FR2:  span(35, 49),
		CDR2: span(50, 56),
		FR3:  span(57, 88),
		CDR3: span(89, 97),
		FR4:  span(98, 107),
	}
	return map[ChainType]map[RegionName]PositionRange{
		Heavy:  heavy,
		Lambda: light,
	}
}
