package imagegen

import (
	"errors"
	"math/rand/v2"
)

// DefaultPrompts are the built-in Task 1 descriptions.
var DefaultPrompts = []string{
	"A simple line graph for an IELTS writing task 1, showing changes in population in 3 different countries between 1990 and 2020.",
	"An IELTS academic writing task 1 bar chart comparing the percentage of households with different types of pets in the UK in 2010 and 2020.",
	"A pie chart for IELTS writing task 1 illustrating the main sources of electricity in a European country in 2023.",
	"An IELTS task 1 table showing the number of international students enrolled in universities in Canada, Australia, and the USA for the years 2015, 2018, and 2021.",
	"A process diagram for an IELTS task 1 showing the life cycle of a salmon.",
}

// ErrNoPrompts is returned when a prompt source is empty.
var ErrNoPrompts = errors.New("no task prompts available")

// Prompts supplies task descriptions.
type Prompts interface {
	Descriptions() ([]string, error)
}

// StaticPrompts is a fixed prompt list.
type StaticPrompts []string

// Descriptions returns the list.
func (p StaticPrompts) Descriptions() ([]string, error) {
	if len(p) == 0 {
		return nil, ErrNoPrompts
	}
	return p, nil
}

// PickPrompt returns one prompt chosen uniformly by rng.
func PickPrompt(rng *rand.Rand, prompts []string) (string, error) {
	if len(prompts) == 0 {
		return "", ErrNoPrompts
	}
	return prompts[rng.IntN(len(prompts))], nil
}
