// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/penny-vault/pv-optimize/objectives"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(objectivesCmd)
}

var objectivesCmd = &cobra.Command{
	Use:   "objectives [shortcode]",
	Short: "List available optimization objectives",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		objectives.InitializeObjectiveMap()

		if len(args) == 1 {
			printObjectiveDetail(args[0])
			return
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Shortcode", "Name", "Version", "Description"})
		table.SetBorder(false)
		for _, obj := range objectives.ObjectiveList {
			table.Append([]string{obj.Shortcode, obj.Name, obj.Version, obj.Description})
		}
		table.Render()
	},
}

func printObjectiveDetail(shortcode string) {
	obj, ok := objectives.ObjectiveMap[shortcode]
	if !ok {
		log.Fatal().Str("Shortcode", shortcode).Msg("objective not found")
	}

	fmt.Printf("%s (%s) v%s\n\n", obj.Name, obj.Shortcode, obj.Version)
	fmt.Println(obj.Description)
	fmt.Println()

	if len(obj.Arguments) == 0 {
		fmt.Println("This objective takes no arguments.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Argument", "Type", "Default", "Description"})
	table.SetBorder(false)
	for name, arg := range obj.Arguments {
		table.Append([]string{name, arg.Typecode, arg.Default, arg.Description})
	}
	table.Render()
}
