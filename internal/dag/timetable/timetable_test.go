/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

type TimetableTestSuite struct {
	suite.Suite
}

func TestTimetableTestSuite(t *testing.T) {
	suite.Run(t, new(TimetableTestSuite))
}

func (suite *TimetableTestSuite) TestFromScheduleInterval() {
	testCases := []struct {
		name     string
		interval any
		expected model.Timetable
	}{
		{"Null", nil, NullTimetable{}},
		{"Once", "@once", OnceTimetable{}},
		{"Continuous", "@continuous", ContinuousTimetable{}},
		{"Duration", time.Hour, &DeltaDataIntervalTimetable{Delta: time.Hour}},
		{"RelativeDelta", model.RelativeDelta{Months: 1}, &DeltaDataIntervalTimetable{Delta: model.RelativeDelta{Months: 1}}},
	}
	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			rule, err := FromScheduleInterval(tc.interval, "UTC")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, rule)
		})
	}
}

func (suite *TimetableTestSuite) TestPresetsBecomeCron() {
	rule, err := FromScheduleInterval("@hourly", "")
	require.NoError(suite.T(), err)
	cronRule, ok := rule.(*CronDataIntervalTimetable)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "0 * * * *", cronRule.Expression)
	assert.Equal(suite.T(), "UTC", cronRule.Timezone)

	next := cronRule.Next(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC))
	assert.Equal(suite.T(), time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), next.UTC())
}

func (suite *TimetableTestSuite) TestInvalidIntervals() {
	_, err := FromScheduleInterval("@fortnightly", "UTC")
	assert.ErrorContains(suite.T(), err, `unknown schedule preset "@fortnightly"`)

	_, err = FromScheduleInterval("not a cron", "UTC")
	assert.ErrorContains(suite.T(), err, "invalid cron expression")

	_, err = FromScheduleInterval(-time.Minute, "UTC")
	assert.Error(suite.T(), err)

	_, err = FromScheduleInterval(42, "UTC")
	assert.ErrorContains(suite.T(), err, "unsupported schedule interval type int")

	_, err = NewCronDataIntervalTimetable("0 0 * * *", "Mars/Olympus")
	assert.ErrorContains(suite.T(), err, "invalid timezone")
}

func (suite *TimetableTestSuite) TestCronStateRoundTrip() {
	rule, err := NewCronDataIntervalTimetable("30 6 * * 1", "UTC")
	require.NoError(suite.T(), err)
	state := rule.Serialize()
	assert.Equal(suite.T(), map[string]any{"expression": "30 6 * * 1", "timezone": "UTC"}, state)

	decoded, err := DeserializeCronDataIntervalTimetable(state)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "30 6 * * 1", decoded.Summary())

	_, err = DeserializeCronDataIntervalTimetable(map[string]any{})
	assert.Error(suite.T(), err)
}

func (suite *TimetableTestSuite) TestDeltaStateRoundTrip() {
	rule := &DeltaDataIntervalTimetable{Delta: 90 * time.Minute}
	assert.Equal(suite.T(), map[string]any{"delta": 5400.0}, rule.Serialize())
	decoded, err := DeserializeDeltaDataIntervalTimetable(rule.Serialize())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), rule, decoded)

	relative := &DeltaDataIntervalTimetable{Delta: model.RelativeDelta{Days: 1}}
	assert.Equal(suite.T(), map[string]any{"delta": map[string]any{"days": 1}}, relative.Serialize())
	decoded, err = DeserializeDeltaDataIntervalTimetable(relative.Serialize())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), relative, decoded)

	_, err = DeserializeDeltaDataIntervalTimetable(map[string]any{"delta": "soon"})
	assert.Error(suite.T(), err)
}

func (suite *TimetableTestSuite) TestSummaries() {
	assert.Equal(suite.T(), "None", NullTimetable{}.Summary())
	assert.Equal(suite.T(), "@once", OnceTimetable{}.Summary())
	assert.Equal(suite.T(), "Dataset", DatasetTriggeredTimetable{}.Summary())
	assert.Equal(suite.T(), "1h0m0s", (&DeltaDataIntervalTimetable{Delta: time.Hour}).Summary())
}
