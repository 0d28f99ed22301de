package molecule

// Atomic numbers referenced by the standardization rules.
const (
	Hydrogen   = 1
	Lithium    = 3
	Boron      = 5
	Carbon     = 6
	Nitrogen   = 7
	Oxygen     = 8
	Fluorine   = 9
	Sodium     = 11
	Magnesium  = 12
	Silicon    = 14
	Phosphorus = 15
	Sulfur     = 16
	Chlorine   = 17
	Potassium  = 19
	Calcium    = 20
	Iron       = 26
	Selenium   = 34
	Bromine    = 35
	Iodine     = 53
)

var elementSymbols = [...]string{
	"*",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba",
	"La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb", "Lu",
	"Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra",
	"Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md", "No", "Lr",
	"Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds", "Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var symbolIndex = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for z, s := range elementSymbols {
		m[s] = z
	}
	return m
}()

// MaxAtomicNumber is the largest atomic number the element table knows.
const MaxAtomicNumber = len(elementSymbols) - 1

// Symbol returns the element symbol for atomic number z, or "*" when z is
// outside the table.
func Symbol(z int) string {
	if z < 0 || z > MaxAtomicNumber {
		return "*"
	}
	return elementSymbols[z]
}

// AtomicNumber looks up an element symbol (case-sensitive, "Cl" not "CL").
func AtomicNumber(symbol string) (int, bool) {
	z, ok := symbolIndex[symbol]
	if !ok || z == 0 {
		return 0, false
	}
	return z, true
}

// defaultValences lists the allowed neutral valences, lowest first.  Elements
// absent from the map have no fixed valence (metals, noble gases).
var defaultValences = map[int][]int{
	Hydrogen:   {1},
	Boron:      {3},
	Carbon:     {4},
	Nitrogen:   {3, 5},
	Oxygen:     {2},
	Fluorine:   {1},
	Silicon:    {4},
	Phosphorus: {3, 5},
	Sulfur:     {2, 4, 6},
	Chlorine:   {1, 3, 5, 7},
	33:         {3, 5}, // As
	Selenium:   {2, 4, 6},
	Bromine:    {1, 3, 5},
	52:         {2, 4, 6}, // Te
	Iodine:     {1, 3, 5, 7},
}

// Valences returns the allowed valences of element z carrying formal charge
// charge.  A charged atom takes the valences of its isoelectronic neutral
// neighbour (N+ behaves like C, O- like F), which is how the common
// cheminformatics toolkits treat main-group ions.  nil means unconstrained.
func Valences(z, charge int) []int {
	if charge == 0 {
		return defaultValences[z]
	}
	if _, ok := defaultValences[z]; !ok {
		return nil
	}
	// C- behaves like N, C+ like B.
	iso := z - charge
	if v, ok := defaultValences[iso]; ok && sameBlock(z, iso) {
		return v
	}
	return nil
}

// sameBlock reports whether two atomic numbers lie in the same p-block period,
// so that the isoelectronic shift does not cross a noble gas.
func sameBlock(a, b int) bool {
	period := func(z int) int {
		switch {
		case z <= 2:
			return 1
		case z <= 10:
			return 2
		case z <= 18:
			return 3
		case z <= 36:
			return 4
		case z <= 54:
			return 5
		default:
			return 6
		}
	}
	return period(a) == period(b)
}

// MaxValence returns the largest allowed valence for z at charge, and false
// when the element is unconstrained.
func MaxValence(z, charge int) (int, bool) {
	v := Valences(z, charge)
	if len(v) == 0 {
		return 0, false
	}
	return v[len(v)-1], true
}

// IsSaltMetal reports whether z is one of the alkali/alkaline-earth counter-ion
// metals stripped before fragmentation: Li, Na, Mg, K, Ca.
func IsSaltMetal(z int) bool {
	switch z {
	case Lithium, Sodium, Magnesium, Potassium, Calcium:
		return true
	}
	return false
}

// IsAllowedElement reports whether z belongs to the organic allowed set
// {H, C, N, O, F, Si, P, S, Cl, Br, I}.
func IsAllowedElement(z int) bool {
	switch z {
	case Hydrogen, Carbon, Nitrogen, Oxygen, Fluorine, Silicon, Phosphorus, Sulfur, Chlorine, Bromine, Iodine:
		return true
	}
	return false
}
