// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package dbm-sheets keeps Google Sheets worksheets in sync with the DoubleClick Bid Manager (DBM) reports
they are linked to.

dbm-sheets can be used from the command line but is really intended to be run as a daemon that executes
the scheduled offline syncs, emailing the spreadsheet owner if a sync fails or the DBM API credentials
have expired.

dbm-sheets supports the following commands:

  - authorise, to authorise access to the DBM API, Google Cloud Storage and Google Sheets
  - reports, to list the DBM reports available to the authorised user
  - link, to link a worksheet to a DBM report and pull the latest report data
  - unlink, to remove the link between a worksheet and its DBM report
  - refresh, to refresh a single linked worksheet
  - status, to display the linked report and last sync details of a worksheet
  - get, to download the latest run of a worksheet's DBM report to a TSV file
  - sync, to refresh all the linked worksheets in a spreadsheet
  - schedule, to set, clear or display the offline sync schedule of a spreadsheet
  - debug-info, to dump the stored report links and schedule of a spreadsheet
  - purge, to delete all the stored links, schedules and credentials for a spreadsheet
  - daemon, to run the scheduled offline syncs
*/
package dbmsheets
