package board

import "testing"

func TestFormatMove(t *testing.T) {
	for pos := 0; pos < Size; pos++ {
		got, err := ParseMove(FormatMove(pos))
		if err != nil {
			t.Fatalf("ParseMove(FormatMove(%d)) failed: %v", pos, err)
		}
		if got != pos {
			t.Errorf("round trip failed: %d -> %s -> %d", pos, FormatMove(pos), got)
		}
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"center", "[4]", 4, false},
		{"padded", " [8] ", 8, false},
		{"inner space", "[ 2 ]", 2, false},
		{"out of range", "[9]", 0, true},
		{"negative", "[-1]", 0, true},
		{"no brackets", "4", 0, true},
		{"not a number", "[a]", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMove(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMove(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMove(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		pos  int
		want PositionType
	}{
		{4, PositionCenter},
		{0, PositionCorner}, {2, PositionCorner}, {6, PositionCorner}, {8, PositionCorner},
		{1, PositionEdge}, {3, PositionEdge}, {5, PositionEdge}, {7, PositionEdge},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.pos); got != tt.want {
			t.Errorf("TypeOf(%d) = %s, want %s", tt.pos, got, tt.want)
		}
	}
}
