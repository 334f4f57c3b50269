package feed

import "testing"

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name string
		item CandidateItem
		want bool
	}{
		{
			name: "wav file",
			item: CandidateItem{Name: "Audio.en-us.wav", IsFile: true},
			want: true,
		},
		{
			name: "uppercase extension",
			item: CandidateItem{Name: "AUDIO.EN-US.WAV", IsFile: true},
			want: true,
		},
		{
			name: "audio facet without wav suffix",
			item: CandidateItem{Name: "recording.en-us.m4a", IsFile: true, HasAudio: true},
			want: true,
		},
		{
			name: "plain text file",
			item: CandidateItem{Name: "notes.txt", IsFile: true},
			want: false,
		},
		{
			name: "deleted item",
			item: CandidateItem{Name: "Audio.en-us.wav", IsFile: true, IsDeleted: true},
			want: false,
		},
		{
			name: "folder",
			item: CandidateItem{Name: "recordings", IsFile: false},
			want: false,
		},
		{
			name: "nameless item",
			item: CandidateItem{IsFile: true},
			want: false,
		},
	}

	var filter Filter
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Matches(tt.item); got != tt.want {
				t.Fatalf("Matches(%+v) = %v, want %v", tt.item, got, tt.want)
			}
		})
	}
}

func TestFilter_CustomExtension(t *testing.T) {
	filter := Filter{AudioExtension: ".mp3"}
	if !filter.Matches(CandidateItem{Name: "song.en-us.MP3", IsFile: true}) {
		t.Fatal("expected custom extension to match case-insensitively")
	}
	if filter.Matches(CandidateItem{Name: "Audio.en-us.wav", IsFile: true}) {
		t.Fatal("expected default extension to stop matching once overridden")
	}
}
