package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netmimic/netmimic/pkg/project"
	"github.com/netmimic/netmimic/pkg/util"
)

// openProject checks that the given directory exists before wrapping it.
func openProject(path string) (*project.Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("project directory '%s' does not exist", path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", path)
	}
	return project.New(path), nil
}

var initCmd = &cobra.Command{
	Use:   "init <project-dir>",
	Short: "Scaffold a project directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := openProject(args[0])
		if err != nil {
			return err
		}
		util.Info("initializing project")
		if err := proj.Init(); err != nil {
			return err
		}
		util.Infof("project initialized at %s", proj.Root())
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <project-dir> <yang-name>",
	Short: "Build a yang tree from its sources",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := openProject(args[0])
		if err != nil {
			return err
		}
		util.Infof("building yang tree '%s'", args[1])
		if err := proj.Build(args[1]); err != nil {
			return err
		}
		util.Infof("yang tree '%s' built", args[1])
		return nil
	},
}
