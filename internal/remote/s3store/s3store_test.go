package s3store

import "testing"

func TestFolderPrefix(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"ABC-1000", "Footage"}, "ABC-1000/Footage/"},
		{[]string{"/ABC-1000/", "Footage/"}, "ABC-1000/Footage/"},
		{[]string{"", "Footage"}, "Footage/"},
		{[]string{"", ""}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := folderPrefix(tt.in); got != tt.want {
			t.Errorf("folderPrefix(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
