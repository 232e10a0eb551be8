package deck

// HandStats is the precomputed feature vector the evaluator reads.
// It is computed at most once per seat per deal and is a flat record
// with no heap allocation.
type HandStats struct {
	Length        [4]int
	HCP           [4]int
	TotalHCP      int
	Controls      [4]int
	TotalControls int
	Losers        [4]int
	TotalLosers   int
	RankCount     [4][13]uint8
	TopN          [4][5]int
	ShapeIndex    int
	Quality       [4]int
	CCCC          int
}

// ComputeStats analyses a hand into its feature vector.
func ComputeStats(h *Hand) HandStats {
	var st HandStats

	for _, c := range h.Cards() {
		suit := c.Suit()
		rank := c.Rank()
		st.Length[suit]++
		st.HCP[suit] += rank.HCP()
		st.Controls[suit] += rank.Controls()
		st.RankCount[suit][rank] = 1
	}
	for _, suit := range Suits {
		st.TotalHCP += st.HCP[suit]
		st.TotalControls += st.Controls[suit]
		st.Losers[suit] = suitLosers(&st, suit)
		st.TotalLosers += st.Losers[suit]
		topHonors(&st, suit)
		st.Quality[suit] = suitQuality(&st, suit)
	}
	st.ShapeIndex = ShapeIndex(
		st.Length[Spades], st.Length[Hearts], st.Length[Diamonds], st.Length[Clubs])
	st.CCCC = cccc(&st)
	return st
}

// has reports whether a rank is held in a suit
func (st *HandStats) has(suit Suit, rank Rank) bool {
	return st.RankCount[suit][rank] != 0
}

// CountRank returns the number of cards of a rank across all suits
func (st *HandStats) CountRank(rank Rank) int {
	n := 0
	for _, suit := range Suits {
		n += int(st.RankCount[suit][rank])
	}
	return n
}

// Top returns the count of the top-n honors (n in 1..5) held in a suit
func (st *HandStats) Top(n int, suit Suit) int {
	return st.TopN[suit][n-1]
}

// TopTotal returns the count of the top-n honors held across all suits
func (st *HandStats) TopTotal(n int) int {
	total := 0
	for _, suit := range Suits {
		total += st.TopN[suit][n-1]
	}
	return total
}

// C13Suit returns the 6-4-2-1 point count for one suit
func (st *HandStats) C13Suit(suit Suit) int {
	return 6*int(st.RankCount[suit][Ace]) +
		4*int(st.RankCount[suit][King]) +
		2*int(st.RankCount[suit][Queen]) +
		1*int(st.RankCount[suit][Jack])
}

// C13 returns the 6-4-2-1 point count for the whole hand
func (st *HandStats) C13() int {
	total := 0
	for _, suit := range Suits {
		total += st.C13Suit(suit)
	}
	return total
}

// Balanced reports whether the hand is 4-3-3-3, 4-4-3-2 or 5-3-3-2
func (st *HandStats) Balanced() bool {
	d := st.Length
	// Sort the four lengths descending (insertion sort, fixed size).
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && d[j] > d[j-1]; j-- {
			d[j], d[j-1] = d[j-1], d[j]
		}
	}
	switch d {
	case [4]int{4, 3, 3, 3}, [4]int{4, 4, 3, 2}, [4]int{5, 3, 3, 2}:
		return true
	}
	return false
}

// suitLosers computes the losing-trick count for one suit.
// Void 0; singleton 0 with the ace, else 1; doubleton 0 with AK, 1
// with the ace or king, else 2; three or more cards start at 3 and
// subtract one for each of A, K, Q held.
func suitLosers(st *HandStats, suit Suit) int {
	length := st.Length[suit]
	a := st.has(suit, Ace)
	k := st.has(suit, King)
	q := st.has(suit, Queen)

	switch {
	case length == 0:
		return 0
	case length == 1:
		if a {
			return 0
		}
		return 1
	case length == 2:
		switch {
		case a && k:
			return 0
		case a || k:
			return 1
		default:
			return 2
		}
	default:
		losers := 3
		if a {
			losers--
		}
		if k {
			losers--
		}
		if q {
			losers--
		}
		return losers
	}
}

// topHonors fills TopN for a suit: how many of the top-n honor set
// (A, AK, AKQ, AKQJ, AKQJT) are held.
func topHonors(st *HandStats, suit Suit) {
	tops := [5]Rank{Ace, King, Queen, Jack, Ten}
	held := 0
	for n := 0; n < 5; n++ {
		if st.has(suit, tops[n]) {
			held++
		}
		st.TopN[suit][n] = held
	}
}

// suitQuality computes the per-suit quality metric.
func suitQuality(st *HandStats, suit Suit) int {
	length := st.Length[suit]
	if length == 0 {
		return 0
	}
	f := length * 10
	a := st.has(suit, Ace)
	k := st.has(suit, King)
	q := st.has(suit, Queen)
	j := st.has(suit, Jack)
	t := st.has(suit, Ten)
	nine := st.has(suit, Nine)
	eight := st.has(suit, Eight)

	akq := 0
	if a {
		akq++
	}
	if k {
		akq++
	}
	if q {
		akq++
	}

	quality := 0
	if a {
		quality += 4 * f
	}
	if k {
		quality += 3 * f
	}
	if q {
		quality += 2 * f
	}
	if j {
		quality += f
	}
	if t {
		if akq >= 2 || j {
			quality += f
		} else {
			quality += f / 2
		}
	}
	if nine {
		akqj := akq
		if j {
			akqj++
		}
		if akqj >= 2 || t || eight {
			quality += f / 2
		}
	}
	// Long suits promote spot cards: treat the minor honors as held.
	if length >= 7 {
		if !q {
			quality += 2 * f
		}
		if !j {
			quality += f
		}
		if !t {
			quality += f
		}
	}
	return quality
}

// cccc computes the whole-hand evaluation (scaled by 100).
func cccc(st *HandStats) int {
	value := 0
	for _, suit := range Suits {
		length := st.Length[suit]
		a := st.has(suit, Ace)
		k := st.has(suit, King)
		q := st.has(suit, Queen)
		j := st.has(suit, Jack)
		t := st.has(suit, Ten)
		nine := st.has(suit, Nine)

		if a {
			value += 300
		}
		if k {
			value += 200
			if length == 1 {
				value -= 150
			}
		}
		if q {
			value += 100
			switch length {
			case 1:
				value -= 75
			case 2:
				value -= 25
			}
			if !a && !k {
				value -= 25
			}
		}
		akq := 0
		if a {
			akq++
		}
		if k {
			akq++
		}
		if q {
			akq++
		}
		if j {
			switch {
			case akq >= 2:
				value += 50
			case akq == 1:
				value += 25
			}
		}
		if t {
			akqj := akq
			if j {
				akqj++
			}
			switch {
			case akqj >= 2:
				value += 25
			case akqj == 1 && nine:
				value += 25
			}
		}
		value += st.Quality[suit]
	}

	shapePoints := 0
	for _, length := range st.Length {
		if length < 3 {
			value += 100
			shapePoints += (3 - length) * 100
		}
	}
	if st.Balanced() {
		value -= 50
	} else {
		value += shapePoints - 100
	}
	return value
}
