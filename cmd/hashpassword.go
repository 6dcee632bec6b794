//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/lib/authn"
	"github.com/spf13/cobra"
	"io"
	"os"
	"strings"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash_password",
	Short: "Get an Argon2id hash of an officer password",
	Long: "Get an Argon2id hash of an officer password\n\n" +
		"The result is in PHC format, ready for the officer credential table. " +
		"Without --password, the password is read from the first line of stdin. " +
		"With --check, the password is verified against an existing hash instead.",
	Run: runHashPassword,
}

const (
	passwordFlagName = "password"
	checkFlagName    = "check"
)

func init() {
	rootCmd.AddCommand(hashPasswordCmd)

	hashPasswordCmd.Flags().String(passwordFlagName, "", "The password to hash")
	hashPasswordCmd.Flags().String(checkFlagName, "", "An existing hash to check the password against")
}

func runHashPassword(cmd *cobra.Command, args []string) {
	password, _ := cmd.Flags().GetString(passwordFlagName)
	check, _ := cmd.Flags().GetString(checkFlagName)
	if err := runHashPasswordInternal(cmd.Context(), password, check, os.Stdin, os.Stdout); err != nil {
		stderrPrintf("%v\n", err)
		os.Exit(1)
	}
}

var errPasswordMismatch = errors.New("password does not match")

func runHashPasswordInternal(ctx context.Context, password, check string, in io.Reader, out io.Writer) error {
	if password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("[ReadString]: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("no password given")
	}
	if check != "" {
		ok, err := authn.Verify(ctx, password, check)
		if err != nil {
			return fmt.Errorf("[Verify]: %w", err)
		}
		if !ok {
			return errPasswordMismatch
		}
		_, err = fmt.Fprintln(out, "ok")
		return err
	}
	_, err := fmt.Fprintln(out, authn.NewSalted(password))
	return err
}
