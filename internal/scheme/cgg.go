package scheme

// cggRegions returns the CGG numbering region boundaries. CGG is not
// natively numbered by the external engine — the numbering adapter
// requests Kabat numbering and stamps the result as CGG (see
// internal/numbering) — but its region boundaries are its own,
// slightly narrower CDR definitions than Kabat's.
func cggRegions() map[ChainType]map[RegionName]PositionRange {
	heavy := map[RegionName]PositionRange{
		FR1:  span(1, 30),
		CDR1: span(31, 35),
		FR2:  span(36, 49),
		CDR2: span(50, 58),
		FR3:  span(59, 94),
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
