package types

// Source is a named origin-system catalog entry. The pipeline only ever
// looks sources up by name; the catalog itself is seeded out of band.
type Source struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
