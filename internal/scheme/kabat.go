package scheme

// kabatRegions returns the Kabat numbering region boundaries, which
// differ between heavy and light chains.
func kabatRegions() map[ChainType]map[RegionName]PositionRange {
	heavy := map[RegionName]PositionRange{
		FR1:  span(1, 30),
		CDR1: span(31, 35),
		FR2:  span(36, 49),
		CDR2: span(50, 65),
		FR3:  span(66, 94),
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
