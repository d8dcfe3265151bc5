package portal

import "time"

const samplePDF = "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf"

// SeedAccounts returns the accounts used when no accounts snapshot exists.
func SeedAccounts() []Account {
	return []Account{
		{
			ID:      "u1",
			Name:    "Rahul Sharma",
			Email:   "rahul@abes.edu.in",
			Avatar:  "https://picsum.photos/200",
			Profile: StudentProfile{Branch: "CSE", Year: "3rd Year"},
		},
		{
			ID:      "admin1",
			Name:    "Dr. Admin",
			Email:   "admin@abes.edu.in",
			Avatar:  "https://picsum.photos/201",
			Profile: AdminProfile{},
		},
	}
}

// SeedMaterials returns the catalog used when no materials snapshot exists.
// The pending entry is stamped with now.
func SeedMaterials(now time.Time) []Material {
	return []Material{
		{
			ID:           "m1",
			Title:        "Data Structures Complete Notes",
			Description:  "Handwritten notes covering Arrays, Linked Lists, Trees and Graphs.",
			Subject:      "Data Structures",
			Branch:       "CSE",
			Year:         "2nd Year",
			Semester:     "Sem 3",
			Type:         TypeNotes,
			FileURL:      samplePDF,
			UploadedBy:   "u1",
			UploaderName: "Rahul Sharma",
			IsApproved:   true,
			Downloads:    124,
			Likes:        45,
			CreatedAt:    time.Date(2023, 10, 15, 10, 0, 0, 0, time.UTC),
			Size:         "2.4 MB",
		},
		{
			ID:           "m2",
			Title:        "Operating System PYQ 2023",
			Description:  "Previous year question paper with solution keys.",
			Subject:      "Operating Systems",
			Branch:       "IT",
			Year:         "2nd Year",
			Semester:     "Sem 4",
			Type:         TypePYQ,
			FileURL:      samplePDF,
			UploadedBy:   "u1",
			UploaderName: "Rahul Sharma",
			IsApproved:   true,
			Downloads:    89,
			Likes:        12,
			CreatedAt:    time.Date(2023, 11, 20, 14, 30, 0, 0, time.UTC),
			Size:         "1.1 MB",
		},
		{
			ID:           "m3",
			Title:        "React.js Workshop Manual",
			Description:  "Lab manual for the advanced web development workshop.",
			Subject:      "Web Technology",
			Branch:       "CSE",
			Year:         "3rd Year",
			Semester:     "Sem 5",
			Type:         TypeLabManual,
			FileURL:      samplePDF,
			UploadedBy:   "u1",
			UploaderName: "Rahul Sharma",
			CreatedAt:    now,
			Size:         "5.6 MB",
		},
		{
			ID:           "m4",
			Title:        "Engineering Mathematics I Cheat Sheet",
			Description:  "Quick formula reference for calculus and algebra.",
			Subject:      "Mathematics I",
			Branch:       "ECE",
			Year:         "1st Year",
			Semester:     "Sem 1",
			Type:         TypeNotes,
			FileURL:      samplePDF,
			UploadedBy:   "u1",
			UploaderName: "Rahul Sharma",
			IsApproved:   true,
			Downloads:    432,
			Likes:        150,
			CreatedAt:    time.Date(2023, 9, 1, 9, 0, 0, 0, time.UTC),
			Size:         "0.5 MB",
		},
	}
}
