package queue

// Palette holds the display colors assigned to cars.
var Palette = []string{
	"#E53935", // red
	"#1E88E5", // blue
	"#43A047", // green
	"#FB8C00", // orange
	"#8E24AA", // purple
	"#00ACC1", // cyan
	"#FDD835", // yellow
	"#6D4C41", // brown
	"#D81B60", // pink
	"#3949AB", // indigo
}

// ColorFor returns the deterministic display color of a car.
func ColorFor(carNumber int) string {
	i := carNumber % len(Palette)
	if i < 0 {
		i += len(Palette)
	}
	return Palette[i]
}
