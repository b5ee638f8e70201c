package models

import "github.com/pkg/errors"

// OutputClass represents one wayang character label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
	// A short description of the character.
	Description string
}

// OutputClassSet is the ordered label set shared by every classifier.
type OutputClassSet struct {
	// Classes that are supported and mappable, in model output order.
	Classes []OutputClass
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// BuildNameIndexMap builds or rebuilds the name->index map.
func (s *OutputClassSet) BuildNameIndexMap() {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	for _, c := range s.Classes {
		s.nameToIdx[c.Name] = c.Index
	}
}

// Len returns the number of classes; every model output vector has exactly this length.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// Class returns the class at a model output index.
func (s *OutputClassSet) Class(idx int) (OutputClass, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return OutputClass{}, errors.Errorf("index %d out of range for %d classes", idx, len(s.Classes))
	}
	return s.Classes[idx], nil
}

// Index returns the model output index for a class name.
func (s *OutputClassSet) Index(name string) (int, bool) {
	idx, ok := s.nameToIdx[name]
	return idx, ok
}

// Contains reports whether name is a member of the set.
func (s *OutputClassSet) Contains(name string) bool {
	_, ok := s.nameToIdx[name]
	return ok
}

// Names returns the class names in index order.
func (s *OutputClassSet) Names() []string {
	names := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		names[i] = c.Name
	}
	return names
}

// Labels is the fixed label set of the three wayang classifiers.
var Labels = newWayangClasses()

func newWayangClasses() *OutputClassSet {
	set := &OutputClassSet{
		Classes: []OutputClass{
			{0, "Abimanyu", "Putra Arjuna dan Subadra, ksatria muda pemberani yang gugur di Bharatayuddha"},
			{1, "Antasena", "Putra Bima dan Arimbi, memiliki kekuatan luar biasa dan dapat hidup di air"},
			{2, "Arjuna", "Pangeran ketiga Pandawa, ahli memanah terhebat, murid kesayangan Drona"},
			{3, "Bagong", "Punakawan termuda, cerdik dan lucu, pengikut setia Pandawa"},
			{4, "Bima", "Pangeran kedua Pandawa, memiliki kekuatan super dan senjata Gada Rujakpolo"},
			{5, "Cepot", "Punakawan dari Cirebon, terkenal dengan humor dan kebijaksanaannya"},
			{6, "Gareng", "Punakawan yang cacat fisik namun bijak, saudara Petruk dan Bagong"},
			{7, "Gatot Kaca", "Putra Bima, ksatria sakti yang dapat terbang dengan kekuatan Aji Narantaka"},
			{8, "Hanoman", "Dewa kera putih, setia dan sakti, pembantu utama Sri Rama"},
			{9, "Kresna", "Raja Dwarawati, penasihat Pandawa, inkarnasi Dewa Wisnu"},
			{10, "Nakula", "Pangeran keempat Pandawa, kembar Sadewa, tampan dan ahli strategi"},
			{11, "Petruk", "Punakawan berpostur tinggi, suka bercanda namun cerdas"},
			{12, "Semar", "Pemimpin punakawan, dewa yang menyamar, pelindung Pandawa"},
			{13, "Yudhistira", "Pangeran sulung Pandawa, raja yang adil dan bijaksana"},
		},
	}
	set.BuildNameIndexMap()
	return set
}
