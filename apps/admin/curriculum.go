package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/mentora/core/curriculum"
)

// importCurriculum replaces the stored curriculum with the YAML file at `path`:
//
//	module_id:
//	  title: Module
//	  order: 1
//	  lessons:
//	    lesson_id:
//	      title: Lesson
//	      order: 1
//	      unlockCode: CODE
func (cli *commandLine) importCurriculum(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading curriculum file")
	}
	var c curriculum.Curriculum
	if err = yaml.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "decoding curriculum file")
	}
	if err = cli.curSvc.Import(context.Background(), c, cli.validate); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Imported %d modules, %d lessons.\n", len(c), c.LessonCount())
	return nil
}

func (cli *commandLine) exportCurriculum() error {
	c, err := cli.curSvc.GetCurriculum(context.Background())
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cli.out)
	enc.SetIndent(2)
	if err = enc.Encode(c); err != nil {
		return errors.Wrap(err, "encoding curriculum")
	}
	return enc.Close()
}

// printCurriculum prints every lesson in the order learners unlock them.
func (cli *commandLine) printCurriculum() error {
	c, err := cli.curSvc.GetCurriculum(context.Background())
	if err != nil {
		return err
	}
	for pos, id := range curriculum.BuildOrder(c) {
		l, _ := c.Lesson(id)
		fmt.Fprintf(cli.out, "%3d. %s / %s (%s)\n", pos+1, c[l.ModuleID].Title, l.Title, l.ID)
	}
	return nil
}
