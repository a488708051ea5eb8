package commands

import "github.com/ZanzyTHEbar/calcbot/internal/regression"

var operationChoices = []Choice{
	{Name: "encode", Value: "encode"},
	{Name: "decode", Value: "decode"},
}

func regressionChoices() []Choice {
	models := regression.Models()
	choices := make([]Choice, len(models))
	for i, m := range models {
		choices[i] = Choice{Name: m.ChoiceName(), Value: m.String()}
	}
	return choices
}

func builtins() []Command {
	return []Command{
		{
			Definition: Definition{
				Name:        "analyze",
				Description: "Performs statistical analysis on a list of numbers.",
				Options: []OptionDefinition{
					{
						Name:        "type",
						Description: "Choose whether the data is a parameter or a statistic",
						Type:        OptionString,
						Required:    true,
						Choices: []Choice{
							{Name: "parameter", Value: "parameter"},
							{Name: "statistic", Value: "statistic"},
						},
					},
					{
						Name:        "data",
						Description: "Enter numbers separated by letters, spaces, commas, or semicolons",
						Type:        OptionString,
						Required:    true,
					},
				},
			},
			Handler: handleAnalyze,
		},
		{
			Definition: Definition{
				Name:        "regression",
				Description: "Performs regression analysis.",
				Options: []OptionDefinition{
					{Name: "type", Description: "Regression type", Type: OptionString, Required: true, Choices: regressionChoices()},
					{Name: "x_values", Description: "X values", Type: OptionString, Required: true},
					{Name: "y_values", Description: "Y values", Type: OptionString, Required: true},
				},
			},
			Handler: handleRegression,
		},
		{
			Definition: Definition{
				Name:        "cryptanalysis",
				Description: "Analyze character frequency of a message",
				Options: []OptionDefinition{
					{Name: "input", Description: "The message to analyze", Type: OptionString, Required: true},
				},
			},
			Handler: handleCryptanalysis,
		},
		{
			Definition: Definition{
				Name:        "atbash",
				Description: "Encode or decode a message using Atbash cipher",
				Options: []OptionDefinition{
					{Name: "input", Description: "The message to encode/decode", Type: OptionString, Required: true},
				},
			},
			Handler: handleAtbash,
		},
		{
			Definition: Definition{
				Name:        "caesar",
				Description: "Encodes or decodes text using the Caesar cipher.",
				Options: []OptionDefinition{
					{Name: "operation", Description: "Choose to encode or decode", Type: OptionString, Required: true, Choices: operationChoices},
					{Name: "input", Description: "The text to encode or decode", Type: OptionString, Required: true},
					{Name: "shift", Description: "The shift value (omit to list every shift)", Type: OptionInteger},
				},
			},
			Handler: handleCaesar,
		},
		{
			Definition: Definition{
				Name:        "baconian-24",
				Description: "Encode or decode using Baconian cipher (I/J and U/V are the same)",
				Options:     baconianOptions(),
			},
			Handler: baconianHandler(24),
		},
		{
			Definition: Definition{
				Name:        "baconian-26",
				Description: "Encode or decode using Baconian cipher (26 unique letters)",
				Options:     baconianOptions(),
			},
			Handler: baconianHandler(26),
		},
		{
			Definition: Definition{
				Name:        "binary",
				Description: "Encode or decode binary",
				Options: []OptionDefinition{
					{Name: "operation", Description: "Choose to encode or decode", Type: OptionString, Required: true, Choices: operationChoices},
					{Name: "input", Description: "The message to encode/decode", Type: OptionString, Required: true},
				},
			},
			Handler: handleBinary,
		},
	}
}

func baconianOptions() []OptionDefinition {
	return []OptionDefinition{
		{Name: "operation", Description: "Choose to encode or decode", Type: OptionString, Required: true, Choices: operationChoices},
		{Name: "input", Description: "The message to encode/decode", Type: OptionString, Required: true},
	}
}
