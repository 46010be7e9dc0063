package posts

import "testing"

func TestSlugifyFoldsVietnameseDiacritics(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Dữ liệu khảo sát sinh viên", "du-lieu-khao-sat-sinh-vien"},
		{"Phân tích SPSS nâng cao", "phan-tich-spss-nang-cao"},
		{"Đề tài nghiên cứu 2024", "de-tai-nghien-cuu-2024"},
		{"  Hướng dẫn Stata / SmartPLS  ", "huong-dan-stata-smartpls"},
		{"Ebook---kinh tế lượng", "ebook-kinh-te-luong"},
		{"!!!", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
