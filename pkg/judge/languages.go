package judge

import (
	"fmt"
	"strings"
)

// Language binds a supported language to its backend identifier and to the
// container recipe used by the docker backend.
type Language struct {
	Name     string
	ID       int
	Aliases  []string
	Image    string
	FileName string
	Compile  string
	Run      string
}

var languages = []Language{
	{
		Name:     "python",
		ID:       71,
		Aliases:  []string{"py", "python3"},
		Image:    "python:3.11-alpine",
		FileName: "main.py",
		Run:      "python3 main.py",
	},
	{
		Name:     "javascript",
		ID:       63,
		Aliases:  []string{"js", "node", "nodejs"},
		Image:    "node:20-alpine",
		FileName: "main.js",
		Run:      "node main.js",
	},
	{
		Name:     "java",
		ID:       62,
		Image:    "eclipse-temurin:21-jdk-alpine",
		FileName: "Main.java",
		Compile:  "javac -d /tmp/build Main.java",
		Run:      "java -cp /tmp/build Main",
	},
	{
		Name:     "cpp",
		ID:       54,
		Aliases:  []string{"c++", "cplusplus"},
		Image:    "gcc:13",
		FileName: "main.cpp",
		Compile:  "g++ -O2 -std=c++17 -o /tmp/main main.cpp",
		Run:      "/tmp/main",
	},
	{
		Name:     "c",
		ID:       50,
		Image:    "gcc:13",
		FileName: "main.c",
		Compile:  "gcc -O2 -o /tmp/main main.c -lm",
		Run:      "/tmp/main",
	},
	{
		Name:     "typescript",
		ID:       74,
		Aliases:  []string{"ts"},
		Image:    "denoland/deno:alpine-2.0.0",
		FileName: "main.ts",
		Run:      "deno run --quiet --no-prompt main.ts",
	},
}

// LookupLanguage resolves a language name or alias, case-insensitively.
func LookupLanguage(name string) (Language, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, lang := range languages {
		if lang.Name == normalized {
			return lang, nil
		}
		for _, alias := range lang.Aliases {
			if alias == normalized {
				return lang, nil
			}
		}
	}
	return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

// LanguageByID resolves a backend language identifier.
func LanguageByID(id int) (Language, error) {
	for _, lang := range languages {
		if lang.ID == id {
			return lang, nil
		}
	}
	return Language{}, fmt.Errorf("%w: id %d", ErrUnsupportedLanguage, id)
}

// Languages lists the canonical names of every supported language.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for _, lang := range languages {
		names = append(names, lang.Name)
	}
	return names
}
