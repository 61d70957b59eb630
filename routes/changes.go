package routes

import (
	"net/http"
	"strconv"

	. "github.com/PelionIoT/topology/logging"

	"github.com/gorilla/mux"
)

type ChangesEndpoint struct {
	TopologyFacade TopologyFacade
}

func parseChangeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["changeID"], 10, 64)
}

func (changesEndpoint *ChangesEndpoint) Attach(router *mux.Router) {
	router.HandleFunc("/changes", func(w http.ResponseWriter, r *http.Request) {
		history, err := changesEndpoint.TopologyFacade.History()

		if err != nil {
			Log.Warningf("GET /changes: %v", err)

			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, history)
	}).Methods("GET")

	// With ?wait=true the response is held until the change stops making progress
	router.HandleFunc("/changes/{changeID}", func(w http.ResponseWriter, r *http.Request) {
		changeID, err := parseChangeID(r)

		if err != nil {
			Log.Warningf("GET /changes/{changeID}: Unable to parse change ID as int64: %v", err)

			writeBadRequest(w, "the change id must be an integer")

			return
		}

		wait, err := parseBoolQuery(r, "wait")

		if err != nil {
			Log.Warningf("GET /changes/{changeID}: Unable to parse wait: %v", err)

			writeBadRequest(w, "wait must be true or false")

			return
		}

		if !wait {
			topology := changesEndpoint.TopologyFacade.Topology()

			if plan := topology.PendingChange; plan != nil && plan.ID == changeID {
				writeJSON(w, http.StatusOK, plan.Summary())

				return
			}
		}

		outcome, err := changesEndpoint.TopologyFacade.AwaitChange(r.Context(), changeID)

		if err != nil {
			Log.Warningf("GET /changes/{changeID}: %v", err)

			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, outcome)
	}).Methods("GET")

	router.HandleFunc("/changes/{changeID}/cancel", func(w http.ResponseWriter, r *http.Request) {
		changeID, err := parseChangeID(r)

		if err != nil {
			Log.Warningf("POST /changes/{changeID}/cancel: Unable to parse change ID as int64: %v", err)

			writeBadRequest(w, "the change id must be an integer")

			return
		}

		topology, err := changesEndpoint.TopologyFacade.CancelChange(r.Context(), changeID)

		if err != nil {
			Log.Warningf("POST /changes/{changeID}/cancel: %v", err)

			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, topology)
	}).Methods("POST")

	router.HandleFunc("/changes/{changeID}/retry", func(w http.ResponseWriter, r *http.Request) {
		changeID, err := parseChangeID(r)

		if err != nil {
			Log.Warningf("POST /changes/{changeID}/retry: Unable to parse change ID as int64: %v", err)

			writeBadRequest(w, "the change id must be an integer")

			return
		}

		topology, err := changesEndpoint.TopologyFacade.RetryChange(r.Context(), changeID)

		if err != nil {
			Log.Warningf("POST /changes/{changeID}/retry: %v", err)

			writeError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, topology)
	}).Methods("POST")
}
