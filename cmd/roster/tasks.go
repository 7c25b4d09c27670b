package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/roster/internal/config"
	"github.com/fentz26/roster/internal/models"
	"github.com/fentz26/roster/internal/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and edit task assignments",
	Long: `List and edit task assignments.

Edits are submitted through the configured gateway. They persist only in http
mode; the mock gateway lives for a single command and discards them on exit.`,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in schedule order",
	RunE:  runTasksList,
}

var tasksAssignCmd = &cobra.Command{
	Use:   "assign [task-id] [housekeeper-id]",
	Short: "Assign a task to a housekeeper and submit",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksAssign,
}

var tasksUnassignCmd = &cobra.Command{
	Use:   "unassign [task-id]",
	Short: "Clear a task's housekeeper and submit",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUnassign,
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move [task-id] [position]",
	Short: "Move a task to a position in the schedule and submit",
	Long:  `Moves a task to a zero-based position in the full schedule order. Assignments are not changed.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksMove,
}

var housekeepersCmd = &cobra.Command{
	Use:   "housekeepers",
	Short: "List housekeepers",
	RunE:  runHousekeepersList,
}

const mockEditWarning = "warning: mock gateway in use, change not persisted (use --gateway http)"

var (
	listHousekeeper int
	listUnassigned  bool
)

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksAssignCmd, tasksUnassignCmd, tasksMoveCmd)

	tasksListCmd.Flags().IntVar(&listHousekeeper, "housekeeper", 0, "Only show tasks assigned to this housekeeper")
	tasksListCmd.Flags().BoolVar(&listUnassigned, "unassigned", false, "Only show unassigned tasks")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.mount(); err != nil {
		return err
	}

	state := st.tasks.Snapshot()
	list := state.Tasks
	switch {
	case listUnassigned:
		list = state.Unassigned()
	case listHousekeeper != 0:
		list = state.AssignedTo(listHousekeeper)
	}

	printTasks(cmd.OutOrStdout(), list, st.roster.Housekeepers())
	return nil
}

func runTasksAssign(cmd *cobra.Command, args []string) error {
	hkID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid housekeeper id %q", args[1])
	}

	return editAndSubmit(cmd, args[0], func(st *stores) error {
		if !knownHousekeeper(st.roster.Housekeepers(), hkID) {
			return fmt.Errorf("unknown housekeeper %d", hkID)
		}
		st.tasks.Assign(args[0], models.HousekeeperID(hkID))
		return nil
	}, fmt.Sprintf("Assigned %s to housekeeper %d", args[0], hkID))
}

func runTasksUnassign(cmd *cobra.Command, args []string) error {
	return editAndSubmit(cmd, args[0], func(st *stores) error {
		st.tasks.Unassign(args[0])
		return nil
	}, fmt.Sprintf("Unassigned %s", args[0]))
}

func runTasksMove(cmd *cobra.Command, args []string) error {
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid position %q", args[1])
	}

	return editAndSubmit(cmd, args[0], func(st *stores) error {
		current := st.tasks.Tasks()
		if to < 0 || to >= len(current) {
			return fmt.Errorf("position %d out of range (0-%d)", to, len(current)-1)
		}
		st.tasks.Reorder(tasks.IndexOf(current, args[0]), to)
		return nil
	}, fmt.Sprintf("Moved %s to position %s", args[0], args[1]))
}

// editAndSubmit loads the schedule, applies edit to a known task, and
// submits the result.
func editAndSubmit(cmd *cobra.Command, taskID string, edit func(*stores) error, done string) error {
	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.mount(); err != nil {
		return err
	}

	if tasks.IndexOf(st.tasks.Tasks(), taskID) < 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	if err := edit(st); err != nil {
		return err
	}
	if err := st.submit(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), done)
	if cfg.Gateway.Mode == config.GatewayMock {
		fmt.Fprintln(cmd.ErrOrStderr(), mockEditWarning)
	}
	return nil
}

func runHousekeepersList(cmd *cobra.Command, args []string) error {
	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.mount(); err != nil {
		return err
	}

	state := st.tasks.Snapshot()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTASKS\tMINUTES")
	for _, hk := range st.roster.Housekeepers() {
		assigned := state.AssignedTo(hk.ID)
		minutes := 0
		for _, t := range assigned {
			minutes += t.Duration
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", hk.ID, hk.Name, len(assigned), minutes)
	}
	return w.Flush()
}

func printTasks(out io.Writer, list []models.Task, hks []models.Housekeeper) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}

	names := make(map[int]string, len(hks))
	for _, hk := range hks {
		names[hk.ID] = hk.Name
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAPARTMENT\tMINUTES\tDEADLINE\tASSIGNED TO")
	for _, t := range list {
		assignee := "-"
		if t.AssignedTo != nil {
			assignee = names[*t.AssignedTo]
			if assignee == "" {
				assignee = strconv.Itoa(*t.AssignedTo)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", t.ID, truncate(t.Title, 40), t.HotelApartment, t.Duration, t.Deadline, assignee)
	}
	w.Flush()
}

func knownHousekeeper(hks []models.Housekeeper, id int) bool {
	for _, hk := range hks {
		if hk.ID == id {
			return true
		}
	}
	return false
}

// --- Helpers ---

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
