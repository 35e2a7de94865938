package strategy

func init() {
	Register("random", NewRandom)
	Register("binary", NewBinary)
	Register("pattern", NewPattern)
}
